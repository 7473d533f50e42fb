package board

import (
	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/rolegate"
)

type TaskView struct {
	Definition catalog.TaskDefinition
	// Status is the displayed status: a Pending task whose dependencies are
	// all Completed shows as Active.
	Status       Status
	Stored       Status
	Instance     *TaskInstance
	CanAct       bool
	Unreconciled bool
	InFlight     bool
	Error        string
}

type CategoryView struct {
	Category catalog.Category
	Tasks    []TaskView
}

type View struct {
	Date       string
	Categories []CategoryView
	MusicLinks []apiv1.MusicLink
	Conflicts  []Conflict
}

// View renders the selected date for role. The zero View is returned before
// a date is selected.
func (b *Board) View(role any) View {
	store := b.Store()
	if store == nil {
		return View{}
	}
	snap := store.Snapshot()
	completed := func(id catalog.TaskID) bool {
		return snap.status(id) == StatusCompleted
	}

	v := View{
		Date:       snap.Date(),
		MusicLinks: snap.MusicLinks(),
		Conflicts:  snap.Conflicts(),
	}
	for _, cat := range b.catalog.ListCategories() {
		cv := CategoryView{Category: cat}
		for _, def := range cat.Subtasks {
			stored := snap.status(def.ID)
			tv := TaskView{
				Definition:   def,
				Status:       stored,
				Stored:       stored,
				CanAct:       rolegate.CanAct(role, def),
				Unreconciled: snap.Unreconciled(def.ID),
				InFlight:     snap.InFlight(def.ID),
				Error:        snap.Error(def.ID),
			}
			if in, ok := snap.Instance(def.ID); ok {
				tv.Instance = &in
			}
			if stored == StatusPending && b.catalog.Ready(def.ID, completed) {
				tv.Status = StatusActive
			}
			cv.Tasks = append(cv.Tasks, tv)
		}
		v.Categories = append(v.Categories, cv)
	}
	return v
}

// Task returns the view of a single task.
func (v View) Task(id catalog.TaskID) (TaskView, bool) {
	for _, cat := range v.Categories {
		for _, t := range cat.Tasks {
			if t.Definition.ID == id {
				return t, true
			}
		}
	}
	return TaskView{}, false
}
