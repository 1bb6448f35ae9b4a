package notifications

import (
	"sort"
	"strings"
)

// Template is the static title and body pair for one window. Body
// placeholders: {name}, {time}, {location}.
type Template struct {
	Type  Type   `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var templates = map[Type]Template{
	TypePreShift10: {
		Type:  TypePreShift10,
		Title: "Turno tra 10 minuti",
		Body:  "{name} inizia alle {time}{location}. Ricordati di fare il check-in.",
	},
	TypePreShift0: {
		Type:  TypePreShift0,
		Title: "Il tuo turno inizia ora",
		Body:  "{name} sta iniziando. Effettua il check-in.",
	},
	TypePreShiftLate10: {
		Type:  TypePreShiftLate10,
		Title: "Check-in mancante",
		Body:  "{name} è iniziato alle {time} e non risulta il tuo check-in. Effettualo appena arrivi.",
	},
	TypePostShift10: {
		Type:  TypePostShift10,
		Title: "Turno terminato",
		Body:  "{name} è terminato da 10 minuti. Ricordati di fare il check-out.",
	},
	TypePostShift20: {
		Type:  TypePostShift20,
		Title: "Check-out mancante",
		Body:  "{name} è terminato da 20 minuti e non risulta il tuo check-out.",
	},
	TypePostShift30: {
		Type:  TypePostShift30,
		Title: "Ultimo promemoria check-out",
		Body:  "{name} è terminato da 30 minuti. Effettua subito il check-out.",
	},
}

// Templates returns every template ordered by type.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Render fills the template for c. ok is false for an unknown type.
func Render(c Candidate) (title, body string, ok bool) {
	tpl, ok := templates[c.Type]
	if !ok {
		return "", "", false
	}

	location := ""
	if c.Assignment.Location != "" {
		location = " presso " + c.Assignment.Location
	}
	r := strings.NewReplacer(
		"{name}", displayName(c.Assignment),
		"{time}", c.Scheduled.Format("15:04"),
		"{location}", location,
	)
	return tpl.Title, r.Replace(tpl.Body), true
}

func displayName(a Assignment) string {
	if a.Name != "" {
		return a.Name
	}
	if a.Kind == KindEvent {
		return "L'evento"
	}
	return "Il turno"
}
