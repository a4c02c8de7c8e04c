package prompts

import (
	"fmt"
	"unicode/utf8"
)

// Leading character budgets for template inputs
const (
	ResumeBudget         = 2000
	PairedResumeBudget   = 1500
	JobDescriptionBudget = 1500
)

func linkedInSummaryPrompt(resume string) string {
	return fmt.Sprintf(`
You are a career coach. Based on the resume below, write 10 short LinkedIn summary variations. Each should be 3–4 lines, professional, and unique.
Resume:
%s
`, Truncate(resume, ResumeBudget))
}

func interviewQuestionsPrompt(resume, role, level string) string {
	return fmt.Sprintf(`
You are an interview expert. Based on this resume and the role of %s, generate 30 interview questions with answers for a %s level role. Include technical, behavioral, and situational questions.
Resume:
%s
`, role, level, Truncate(resume, ResumeBudget))
}

func descriptionQuestionsPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(`
You're an interview coach. Based on the resume and job description, generate 15 interview questions with expert answers.

Resume:
%s

Job Description:
%s
`, Truncate(resume, PairedResumeBudget), Truncate(jobDescription, JobDescriptionBudget))
}

func evaluationPrompt(resume string) string {
	return fmt.Sprintf(`
You are a senior recruiter. Evaluate the resume below for clarity, impact, structure, and relevance to the roles it targets.
Start with a short review in plain prose, then end your reply with a JSON object of this exact shape:
{"overall_score": <0-100>, "strengths": ["..."], "weaknesses": ["..."], "suggestions": ["..."], "summary": "..."}
Resume:
%s
`, Truncate(resume, ResumeBudget))
}

func coverLetterPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(`
You are a career coach. Using the resume and job description below, write a one-page cover letter in a professional, confident tone. Refer to concrete experience from the resume and do not invent employers or qualifications.

Resume:
%s

Job Description:
%s
`, Truncate(resume, PairedResumeBudget), Truncate(jobDescription, JobDescriptionBudget))
}

// Truncate returns at most n leading runes of s
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
