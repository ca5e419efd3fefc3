package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/state"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func panel(lines []string) {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	fmt.Println(border.Render(strings.Join(lines, "\n")))
}

// shortID trims a uuid to the prefix accepted back as an argument.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printLists(st *state.Store) {
	lists := st.Lists()
	if len(lists) == 0 {
		fmt.Println(mutedStyle.Render("No lists yet. Create one with 'listsync list add NAME'."))
		return
	}

	tasks := st.Tasks()
	perList := make(map[string][]model.Task)
	for _, t := range tasks {
		perList[t.ListID] = append(perList[t.ListID], t)
	}

	for _, l := range lists {
		open := ""
		if l.ShowOnOpen {
			open = accentStyle.Render(" (on open)")
		}
		total := len(perList[l.ID])
		done := 0
		for _, t := range perList[l.ID] {
			if t.Completed {
				done++
			}
		}
		fmt.Printf("%s  %s%s  %s\n",
			mutedStyle.Render(shortID(l.ID)),
			titleStyle.Render(l.Name),
			open,
			mutedStyle.Render(fmt.Sprintf("%d/%d done", done, total)))
		for _, c := range l.Categories {
			label := c.Name
			if c.Color != nil {
				label = lipgloss.NewStyle().Foreground(lipgloss.Color(*c.Color)).Render(c.Name)
			}
			fmt.Printf("          %s %s\n", mutedStyle.Render(shortID(c.ID)), label)
		}
	}
}

func printTasks(st *state.Store, list model.List, showCompleted bool) {
	catNames := make(map[string]string)
	for _, c := range list.Categories {
		catNames[c.ID] = c.Name
	}

	var tasks []model.Task
	for _, t := range st.Tasks() {
		if t.ListID == list.ID {
			tasks = append(tasks, t)
		}
	}

	fmt.Println(titleStyle.Render(list.Name))
	if len(tasks) == 0 {
		fmt.Println(mutedStyle.Render("  (empty)"))
		return
	}

	children := make(map[string][]model.Task)
	var tops []model.Task
	for _, t := range tasks {
		if t.ParentTaskID != nil {
			children[*t.ParentTaskID] = append(children[*t.ParentTaskID], t)
		} else {
			tops = append(tops, t)
		}
	}
	visible := func(t model.Task) bool { return showCompleted || !t.Completed }

	printOne := func(t model.Task, indent string) {
		box := boxUnchecked
		title := t.Title
		if t.Completed {
			box = boxChecked
			title = doneStyle.Render(title)
		}
		tag := ""
		if t.CategoryID != nil {
			if name, found := catNames[*t.CategoryID]; found {
				tag = "  " + mutedStyle.Render("#"+name)
			}
		}
		fmt.Printf("  %s%s %s  %s%s\n", indent, box, mutedStyle.Render(shortID(t.ID)), title, tag)
	}

	hidden := 0
	for _, t := range tops {
		kids := children[t.ID]
		visibleKids := 0
		for _, k := range kids {
			if visible(k) {
				visibleKids++
			}
		}
		// A completed parent stays on screen while it has open subtasks.
		if !visible(t) && visibleKids == 0 {
			hidden += 1 + len(kids)
			continue
		}
		printOne(t, "")
		for _, k := range kids {
			if visible(k) {
				printOne(k, "    ")
			} else {
				hidden++
			}
		}
	}
	if hidden > 0 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  %d completed hidden (use --all)", hidden)))
	}
}
