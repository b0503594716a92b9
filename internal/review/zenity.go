package review

import (
	"fmt"
	"strings"

	"github.com/ncruces/zenity"
)

// GUIPrompter conducts the review Q&A through native desktop dialogs,
// for reviewers who keep the video player and the prompts side by side.
type GUIPrompter struct {
	title string
}

// NewGUIPrompter returns a dialog-based prompter.
func NewGUIPrompter() *GUIPrompter {
	return &GUIPrompter{title: "B-roll review"}
}

func (p *GUIPrompter) Show(text string) {
	// Dialog dismissal is not an answer; ignore cancellation here.
	_ = zenity.Info(text, zenity.Title(p.title))
}

func (p *GUIPrompter) Choose(question string, options []Option) (string, error) {
	items := make([]string, len(options))
	for i, opt := range options {
		items[i] = fmt.Sprintf("%s - %s", opt.Key, opt.Label)
	}
	selected, err := zenity.List(question, items, zenity.Title(p.title))
	if err != nil {
		return "", err
	}
	key, _, _ := strings.Cut(selected, " - ")
	return key, nil
}

func (p *GUIPrompter) Input(question string) (string, error) {
	answer, err := zenity.Entry(question, zenity.Title(p.title))
	if err != nil {
		if err == zenity.ErrCanceled {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
