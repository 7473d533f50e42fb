package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoleID identifies a production role, always lowercase.
type RoleID string

// TaskID is the canonical identifier of a pipeline step.
type TaskID string

type CategoryID string

const (
	RoleLiturgy    RoleID = "liturgy"
	RolePastor     RoleID = "pastor"
	RoleTranslator RoleID = "translator"
	RoleBeamer     RoleID = "beamer"
	RoleTreasury   RoleID = "treasury"
)

const (
	TaskConcept          TaskID = "concept"
	TaskMusic            TaskID = "music"
	TaskQRCode           TaskID = "qr-code"
	TaskPastorReview     TaskID = "pastor-review"
	TaskSermon           TaskID = "sermon"
	TaskTranslateSermon  TaskID = "translate-sermon"
	TaskTranslateLiturgy TaskID = "translate-liturgy"
	TaskSlides           TaskID = "slides"
)

// TaskDefinition is a static pipeline step. CategoryID and OwnerRole are
// filled from the enclosing category when the catalog is built.
type TaskDefinition struct {
	ID               TaskID     `json:"id" yaml:"id"`
	CategoryID       CategoryID `json:"categoryId" yaml:"-"`
	DisplayName      string     `json:"displayName" yaml:"display_name"`
	OwnerRole        RoleID     `json:"ownerRole" yaml:"-"`
	ActionLabel      string     `json:"actionLabel" yaml:"action_label"`
	RestrictedToRole RoleID     `json:"restrictedToRole,omitempty" yaml:"restricted_to_role,omitempty"`
	DependsOn        []TaskID   `json:"dependsOn,omitempty" yaml:"depends_on,omitempty"`
}

type Category struct {
	ID          CategoryID       `json:"id" yaml:"id"`
	DisplayName string           `json:"displayName" yaml:"display_name"`
	OwnerRole   RoleID           `json:"ownerRole" yaml:"owner_role"`
	Subtasks    []TaskDefinition `json:"subtasks" yaml:"subtasks"`
}

// Catalog is immutable once built. All accessors return copies.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	// Aliases maps deprecated spellings to their canonical task id.
	Aliases    map[string]TaskID `yaml:"aliases,omitempty"`
	QRCodeTask TaskID            `yaml:"qr_code_task,omitempty"`

	taskMap    map[TaskID]TaskDefinition
	order      []TaskID
	dependents map[TaskID][]TaskID
	spellings  map[TaskID][]string
}

// Load reads a catalog from a YAML file. An empty path or a missing file
// yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.build(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Default returns the built-in production pipeline.
func Default() *Catalog {
	c := &Catalog{
		Categories: []Category{
			{
				ID:          "liturgy",
				DisplayName: "Liturgy",
				OwnerRole:   RoleLiturgy,
				Subtasks: []TaskDefinition{
					{ID: TaskConcept, DisplayName: "Service concept", ActionLabel: "Upload concept"},
					{ID: TaskMusic, DisplayName: "Music links", ActionLabel: "Add music links"},
					{ID: TaskQRCode, DisplayName: "Offering QR code", ActionLabel: "Upload QR code", RestrictedToRole: RoleTreasury},
				},
			},
			{
				ID:          "pastor",
				DisplayName: "Pastor",
				OwnerRole:   RolePastor,
				Subtasks: []TaskDefinition{
					{ID: TaskPastorReview, DisplayName: "Concept review", ActionLabel: "Approve concept", DependsOn: []TaskID{TaskConcept}},
					{ID: TaskSermon, DisplayName: "Sermon", ActionLabel: "Upload sermon"},
				},
			},
			{
				ID:          "translation",
				DisplayName: "Translation",
				OwnerRole:   RoleTranslator,
				Subtasks: []TaskDefinition{
					{ID: TaskTranslateSermon, DisplayName: "Sermon translation", ActionLabel: "Submit translation", DependsOn: []TaskID{TaskSermon}},
					{ID: TaskTranslateLiturgy, DisplayName: "Lyrics translation", ActionLabel: "Submit translation", DependsOn: []TaskID{TaskPastorReview}},
				},
			},
			{
				ID:          "presentation",
				DisplayName: "Presentation",
				OwnerRole:   RoleBeamer,
				Subtasks: []TaskDefinition{
					{ID: TaskSlides, DisplayName: "Slides", ActionLabel: "Upload slides", DependsOn: []TaskID{TaskTranslateSermon, TaskTranslateLiturgy}},
				},
			},
		},
		Aliases: map[string]TaskID{
			"sermon-translation": TaskTranslateSermon,
			"translate-lyrics":   TaskTranslateLiturgy,
		},
		QRCodeTask: TaskQRCode,
	}
	if err := c.build(); err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

func (c *Catalog) build() error {
	c.taskMap = make(map[TaskID]TaskDefinition)
	c.dependents = make(map[TaskID][]TaskID)
	c.spellings = make(map[TaskID][]string)
	c.order = nil

	if len(c.Categories) == 0 {
		return errors.New("no categories defined")
	}
	for ci := range c.Categories {
		cat := &c.Categories[ci]
		if cat.ID == "" {
			return errors.New("category id cannot be empty")
		}
		cat.OwnerRole = RoleID(strings.ToLower(strings.TrimSpace(string(cat.OwnerRole))))
		if cat.OwnerRole == "" {
			return fmt.Errorf("category %s has no owner role", cat.ID)
		}
		for ti := range cat.Subtasks {
			t := &cat.Subtasks[ti]
			if t.ID == "" {
				return fmt.Errorf("task id cannot be empty in category %s", cat.ID)
			}
			if _, dup := c.taskMap[t.ID]; dup {
				return fmt.Errorf("duplicate task id: %s", t.ID)
			}
			t.CategoryID = cat.ID
			t.OwnerRole = cat.OwnerRole
			t.RestrictedToRole = RoleID(strings.ToLower(strings.TrimSpace(string(t.RestrictedToRole))))
			c.taskMap[t.ID] = *t
			c.order = append(c.order, t.ID)
			c.spellings[t.ID] = []string{string(t.ID)}
		}
	}

	for _, id := range c.order {
		for _, dep := range c.taskMap[id].DependsOn {
			if _, ok := c.taskMap[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task: %s", id, dep)
			}
			c.dependents[dep] = append(c.dependents[dep], id)
		}
	}
	if err := c.detectCycles(); err != nil {
		return err
	}

	aliases := make([]string, 0, len(c.Aliases))
	for alias := range c.Aliases {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	for _, alias := range aliases {
		canonical := c.Aliases[alias]
		if _, ok := c.taskMap[canonical]; !ok {
			return fmt.Errorf("alias %s points to unknown task: %s", alias, canonical)
		}
		if _, clash := c.taskMap[TaskID(alias)]; clash {
			return fmt.Errorf("alias %s shadows a canonical task id", alias)
		}
		c.spellings[canonical] = append(c.spellings[canonical], alias)
	}

	if c.QRCodeTask != "" {
		if _, ok := c.taskMap[c.QRCodeTask]; !ok {
			return fmt.Errorf("qr code task %s is not defined", c.QRCodeTask)
		}
	}
	return nil
}

// detectCycles detects circular dependencies using DFS.
func (c *Catalog) detectCycles() error {
	visited := make(map[TaskID]bool)
	recStack := make(map[TaskID]bool)

	var visit func(id TaskID) error
	visit = func(id TaskID) error {
		visited[id] = true
		recStack[id] = true
		for _, dep := range c.taskMap[id].DependsOn {
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			} else if recStack[dep] {
				return fmt.Errorf("circular dependency detected: %s -> %s", id, dep)
			}
		}
		recStack[id] = false
		return nil
	}

	for _, id := range c.order {
		if !visited[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListCategories returns the categories with their subtasks in pipeline order.
func (c *Catalog) ListCategories() []Category {
	out := make([]Category, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = cat
		out[i].Subtasks = make([]TaskDefinition, len(cat.Subtasks))
		for j, t := range cat.Subtasks {
			t.DependsOn = slices.Clone(t.DependsOn)
			out[i].Subtasks[j] = t
		}
	}
	return out
}

// Tasks returns every task definition in pipeline order.
func (c *Catalog) Tasks() []TaskDefinition {
	out := make([]TaskDefinition, 0, len(c.order))
	for _, id := range c.order {
		t := c.taskMap[id]
		t.DependsOn = slices.Clone(t.DependsOn)
		out = append(out, t)
	}
	return out
}

// Canonical resolves any known spelling to its canonical task id.
func (c *Catalog) Canonical(id string) (TaskID, bool) {
	if _, ok := c.taskMap[TaskID(id)]; ok {
		return TaskID(id), true
	}
	if canonical, ok := c.Aliases[id]; ok {
		return canonical, true
	}
	return "", false
}

// Task returns the definition for any spelling of a task id.
func (c *Catalog) Task(id string) (TaskDefinition, bool) {
	canonical, ok := c.Canonical(id)
	if !ok {
		return TaskDefinition{}, false
	}
	t := c.taskMap[canonical]
	t.DependsOn = slices.Clone(t.DependsOn)
	return t, true
}

// Spellings returns the canonical id followed by its deprecated aliases.
func (c *Catalog) Spellings(id TaskID) []string {
	return slices.Clone(c.spellings[id])
}

// IsAlias reports whether id is a deprecated spelling.
func (c *Catalog) IsAlias(id string) bool {
	_, ok := c.Aliases[id]
	return ok
}

func (c *Catalog) IsQRCode(id TaskID) bool {
	return c.QRCodeTask != "" && id == c.QRCodeTask
}

// Dependents returns the tasks that directly depend on id.
func (c *Catalog) Dependents(id TaskID) []TaskID {
	return slices.Clone(c.dependents[id])
}

// Ready reports whether every dependency of id is completed.
func (c *Catalog) Ready(id TaskID, completed func(TaskID) bool) bool {
	t, ok := c.taskMap[id]
	if !ok {
		return false
	}
	for _, dep := range t.DependsOn {
		if !completed(dep) {
			return false
		}
	}
	return true
}
