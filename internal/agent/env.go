package agent

import (
	"github.com/nbenliogludev/quiz-chain-solver/internal/browser"
	"github.com/nbenliogludev/quiz-chain-solver/internal/planner"
)

// EnvState is everything the sub-agents know about the step being solved.
type EnvState struct {
	URL    string
	Email  string
	Secret string

	Page *browser.Page
	// Resources is the labeled text of downloaded files and PDFs.
	Resources string
}

func (e EnvState) html() string {
	if e.Page == nil {
		return ""
	}
	return e.Page.HTML
}

func (e EnvState) links() []string {
	if e.Page == nil {
		return nil
	}
	return e.Page.Links
}

func (e EnvState) PlannerInput() planner.Input {
	return planner.Input{URL: e.URL, HTML: e.html(), Links: e.links()}
}
