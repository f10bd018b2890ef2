// Package mailmerge personalizes email templates for a single recipient.
//
// The placeholder set is fixed: {name}, {email}, {company} and {position}.
// Substitution is literal, global and case-sensitive. Replacement text is never
// re-scanned, unknown tokens are left verbatim, and there is no escape syntax.
package mailmerge

import (
	"regexp"
	"strings"

	"recruitmail/internal/types"
)

// Placeholder tokens recognized in subjects and bodies.
const (
	TokenName     = "{name}"
	TokenEmail    = "{email}"
	TokenCompany  = "{company}"
	TokenPosition = "{position}"
)

// Tokens lists the recognized placeholders in the order the page documents them.
var Tokens = []string{TokenName, TokenEmail, TokenCompany, TokenPosition}

// Personalize returns text with every recognized token replaced by the
// matching field of r.
//
// A single strings.Replacer pass is used so that a field value containing a
// token (e.g. a company literally named "{name}") is not substituted again.
func Personalize(text string, r types.Recipient) string {
	return strings.NewReplacer(
		TokenName, r.Name,
		TokenEmail, r.Email,
		TokenCompany, r.Company,
		TokenPosition, r.Position,
	).Replace(text)
}

// Render personalizes both the subject and the body of t for r.
func Render(t types.EmailTemplate, r types.Recipient) types.RenderedEmail {
	return types.RenderedEmail{
		Subject: Personalize(t.Subject, r),
		Body:    Personalize(t.Body, r),
	}
}

// placeholderPattern matches anything shaped like a placeholder.
var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// UnknownPlaceholders returns, in first-seen order and without duplicates,
// the placeholder-shaped tokens in text that Personalize will leave verbatim.
// Misspellings such as {Name} or {role} show up here.
func UnknownPlaceholders(text string) []string {
	var unknown []string
	seen := make(map[string]struct{})
	for _, tok := range placeholderPattern.FindAllString(text, -1) {
		if _, dup := seen[tok]; dup || isToken(tok) {
			continue
		}
		seen[tok] = struct{}{}
		unknown = append(unknown, tok)
	}
	return unknown
}

func isToken(tok string) bool {
	for _, t := range Tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// DefaultTemplate is the cover letter every new session starts with.
func DefaultTemplate() types.EmailTemplate {
	return types.EmailTemplate{
		Subject: "Application for {position} Position",
		Body: `Dear {name},

I hope this email finds you well. I am writing to express my strong interest in the {position} position at {company}.

With my background and skills, I believe I would be a valuable addition to your team. I have attached my resume for your review.

I would welcome the opportunity to discuss how my experience aligns with your needs.

Thank you for your time and consideration.

Best regards,
[Your Name]`,
	}
}
