package academy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/quiz"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/validate"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type Topic struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	Title       string `yaml:"title" json:"title" validate:"required"`
	Description string `yaml:"description" json:"description"`
	Lessons     int    `yaml:"lessons" json:"lessons" validate:"gte=0"`
}

type Quiz struct {
	ID        string          `yaml:"id" json:"id" validate:"required"`
	Topic     string          `yaml:"topic" json:"topic" validate:"required"`
	Title     string          `yaml:"title" json:"title" validate:"required"`
	Points    int             `yaml:"points" json:"points" validate:"gte=0"`
	Questions []quiz.Question `yaml:"questions" json:"-" validate:"min=1"`
}

// QuizSummary is a catalog quiz without its questions.
type QuizSummary struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Title     string `json:"title"`
	Points    int    `json:"points"`
	Questions int    `json:"questions"`
}

type Catalog struct {
	Topics  []Topic `yaml:"topics" validate:"required,min=1,dive"`
	Quizzes []Quiz  `yaml:"quizzes" validate:"dive"`

	byID map[string]int
}

// LoadCatalog reads a YAML catalog from path, or the built-in one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %v: %w", err, fault.ErrInvalidArgument)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	topics := map[string]bool{}
	for _, t := range c.Topics {
		if topics[t.ID] {
			return fmt.Errorf("catalog: duplicate topic %q: %w", t.ID, fault.ErrInvalidArgument)
		}
		topics[t.ID] = true
	}
	c.byID = make(map[string]int, len(c.Quizzes))
	for i, q := range c.Quizzes {
		if _, dup := c.byID[q.ID]; dup {
			return fmt.Errorf("catalog: duplicate quiz %q: %w", q.ID, fault.ErrInvalidArgument)
		}
		if !topics[q.Topic] {
			return fmt.Errorf("catalog: quiz %q has unknown topic %q: %w", q.ID, q.Topic, fault.ErrInvalidArgument)
		}
		for j, question := range q.Questions {
			if err := question.Validate(); err != nil {
				return fmt.Errorf("catalog: quiz %q question %d: %w", q.ID, j, err)
			}
		}
		c.byID[q.ID] = i
	}
	return nil
}

func (c *Catalog) Quiz(id string) (Quiz, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Quiz{}, false
	}
	return c.Quizzes[i], true
}

func (c *Catalog) QuizCount() int { return len(c.Quizzes) }

// QuizzesFor lists the quizzes of a topic; an empty topic lists all.
func (c *Catalog) QuizzesFor(topic string) []QuizSummary {
	out := []QuizSummary{}
	for _, q := range c.Quizzes {
		if topic != "" && q.Topic != topic {
			continue
		}
		out = append(out, QuizSummary{ID: q.ID, Topic: q.Topic, Title: q.Title, Points: q.Points, Questions: len(q.Questions)})
	}
	return out
}

func (c *Catalog) HasTopic(id string) bool {
	for _, t := range c.Topics {
		if t.ID == id {
			return true
		}
	}
	return false
}
