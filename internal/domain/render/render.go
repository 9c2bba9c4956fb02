// Package render turns a message template and a talent profile into a
// personalized subject and body.
//
// Substitution is deterministic and single-pass: each {{name}} token in the
// template is replaced at most once and substituted values are never
// rescanned. Braces in values are broken up so profile data cannot form a
// placeholder, on its own or together with the surrounding template text.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/talentflow/internal/domain/model"
)

// Tone is a presentation hint recorded alongside the message.
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneTechnical    Tone = "technical"
)

// ParseTone validates a tone. Empty means ToneFormal.
func ParseTone(raw string) (Tone, error) {
	switch t := Tone(raw); t {
	case "":
		return ToneFormal, nil
	case ToneFormal, ToneCasual, ToneEnthusiastic, ToneTechnical:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTone, raw)
}

// tag returns the personalization tag recorded for a tone, if any.
func (t Tone) tag() string {
	switch t {
	case ToneCasual:
		return "casual_tone"
	case ToneTechnical:
		return "technical_tone"
	}
	return ""
}

// Input carries everything a render needs besides the template.
type Input struct {
	Talent     *model.Talent
	Content    []model.ContentPiece
	Challenge  *model.Challenge
	Tone       Tone
	SenderName string
}

// Result is a rendered message.
type Result struct {
	Subject string
	Body    string

	// Placeholders lists the names actually substituted, sorted.
	Placeholders []string
	// Tags lists non-placeholder personalization markers such as tone.
	Tags []string
}

// Elements returns placeholders followed by tags, as stored on events.
func (r Result) Elements() []string {
	out := make([]string, 0, len(r.Placeholders)+len(r.Tags))
	out = append(out, r.Placeholders...)
	return append(out, r.Tags...)
}

// DefaultBody is used when no template is available.
const DefaultBody = `Ola {{preferredName}},

Encontramos seu perfil {{sourceContext}} e ficamos impressionados com sua experiencia em {{sapModule}}.

A Accenture esta expandindo sua pratica SAP no Brasil e buscamos profissionais como voce.

Que tal conversarmos? Tenho certeza que temos oportunidades alinhadas ao seu momento de carreira.

Abraco,
{{senderName}}`

// DefaultSubject is the subject used when the template has none. Without a
// name it falls back to a neutral greeting.
func DefaultSubject(preferredName string) string {
	if strings.TrimSpace(preferredName) == "" {
		return "Uma oportunidade SAP para voce"
	}
	return preferredName + ", uma oportunidade SAP para voce"
}

// Render personalizes tpl for in.Talent. A nil template renders DefaultBody.
func Render(tpl *model.MessageTemplate, in Input) Result {
	vars := Variables(in)
	used := make(map[string]struct{})

	body := DefaultBody
	if tpl != nil && tpl.Body != "" {
		body = tpl.Body
	}
	body = substitute(body, vars, used)

	var subject string
	if tpl != nil && tpl.Subject != "" {
		subject = substitute(tpl.Subject, vars, used)
	} else {
		subject = DefaultSubject(vars[VarPreferredName])
	}

	placeholders := make([]string, 0, len(used))
	for name := range used {
		placeholders = append(placeholders, name)
	}
	sort.Strings(placeholders)

	var tags []string
	if tag := in.Tone.tag(); tag != "" {
		tags = append(tags, tag)
	}

	return Result{Subject: subject, Body: body, Placeholders: placeholders, Tags: tags}
}

// Substitute replaces known, non-empty placeholders in text and returns the
// names it replaced.
func Substitute(text string, vars map[string]string) (string, []string) {
	used := make(map[string]struct{})
	out := substitute(text, vars, used)
	names := make([]string, 0, len(used))
	for n := range used {
		names = append(names, n)
	}
	sort.Strings(names)
	return out, names
}

func substitute(text string, vars map[string]string, used map[string]struct{}) string {
	var b strings.Builder
	b.Grow(len(text))

	for {
		start := strings.Index(text, "{{")
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := strings.Index(text[start+2:], "}}")
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		name := text[start+2 : start+2+end]
		value, ok := vars[name]
		if !Known(name) || !ok || value == "" {
			// Not ours: emit one brace and keep scanning so a valid token
			// right after stray braces is still found.
			b.WriteString(text[:start+1])
			text = text[start+1:]
			continue
		}
		b.WriteString(text[:start])
		b.WriteString(escape(value))
		used[name] = struct{}{}
		text = text[start+2+end+2:]
	}
}

const zeroWidthSpace = "\u200b"

// escape breaks every brace pair a value could form, inside itself or with
// the template text around it, with a zero-width space. A substituted value
// can therefore never complete a token.
func escape(v string) string {
	if !strings.ContainsAny(v, "{}") {
		return v
	}
	var b strings.Builder
	b.Grow(len(v) + 4*len(zeroWidthSpace))
	var prev rune
	for i, r := range v {
		if (r == '{' && prev == '{') || (r == '}' && (prev == '}' || i == 0)) {
			b.WriteString(zeroWidthSpace)
		}
		b.WriteRune(r)
		prev = r
	}
	if prev == '{' {
		b.WriteString(zeroWidthSpace)
	}
	return b.String()
}

// SelectTemplate returns the best initial-outreach template for level:
// highest response rate, then lowest ID. ok is false when none applies.
func SelectTemplate(level model.ExperienceLevel, templates []model.MessageTemplate) (model.MessageTemplate, bool) {
	var (
		best  model.MessageTemplate
		found bool
	)
	for _, t := range templates {
		if t.Category != model.CategoryInitialOutreach || !t.ExperienceLevel.Matches(level) {
			continue
		}
		if !found || t.ResponseRate > best.ResponseRate ||
			(t.ResponseRate == best.ResponseRate && t.ID < best.ID) {
			best, found = t, true
		}
	}
	return best, found
}
