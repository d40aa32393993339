package panels

import (
	"fmt"

	"panel-cropper/internal/app"
	"panel-cropper/internal/export"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PagesPanel lists the loaded pages and shows export settings.
type PagesPanel struct {
	state     *app.State
	container fyne.CanvasObject

	names       []string
	list        *widget.List
	regionLabel *widget.Label
	outputLabel *widget.Label
	nextLabel   *widget.Label
	format      *widget.Select

	syncing bool
}

// NewPagesPanel creates a new pages panel.
func NewPagesPanel(state *app.State) *PagesPanel {
	pp := &PagesPanel{state: state}

	pp.list = widget.NewList(
		func() int { return len(pp.names) },
		func() fyne.CanvasObject { return widget.NewLabel("page_000.png") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(pp.names[id])
		},
	)
	pp.list.OnSelected = func(id widget.ListItemID) {
		if pp.syncing || id == state.PageIndex() {
			return
		}
		if err := state.GoTo(id); err != nil {
			state.Emit(app.EventStatus, err.Error())
			pp.selectCurrent()
		}
	}

	pp.regionLabel = widget.NewLabel("")
	pp.outputLabel = widget.NewLabel("")
	pp.outputLabel.Wrapping = fyne.TextWrapBreak
	pp.nextLabel = widget.NewLabel("")

	pp.format = widget.NewSelect([]string{"png", "jpeg", "webp"}, func(s string) {
		if pp.syncing {
			return
		}
		if f, err := export.ParseFormat(s); err == nil {
			state.SetExportFormat(f)
		}
	})

	listScroll := container.NewVScroll(pp.list)
	listScroll.SetMinSize(fyne.NewSize(0, 200))

	pp.container = container.NewBorder(
		widget.NewCard("Selection", "", pp.regionLabel),
		widget.NewCard("Export", "", container.NewVBox(
			pp.outputLabel,
			container.NewHBox(widget.NewLabel("Format:"), pp.format),
			pp.nextLabel,
		)),
		nil, nil,
		listScroll,
	)

	for _, ev := range []app.EventType{app.EventPagesLoaded, app.EventPageChanged,
		app.EventRegionsChanged, app.EventExported, app.EventBatchChanged} {
		state.On(ev, func(interface{}) { pp.Sync() })
	}
	pp.Sync()
	return pp
}

// Container returns the panel container.
func (pp *PagesPanel) Container() fyne.CanvasObject {
	return pp.container
}

// Sync refreshes the list and labels from state.
func (pp *PagesPanel) Sync() {
	names := pp.state.PageNames()
	if len(names) != len(pp.names) {
		pp.names = names
		pp.list.Refresh()
	} else {
		pp.names = names
	}
	pp.selectCurrent()

	total, selected := pp.state.SelectionCount()
	pp.regionLabel.SetText(fmt.Sprintf("%d region(s), %d selected", total, selected))

	dir := pp.state.OutputDir()
	if dir == "" {
		dir = "(not set)"
	}
	pp.outputLabel.SetText("Output: " + dir)
	pp.nextLabel.SetText("Next file: " + export.FileName(pp.state.NextPanelNumber(), pp.state.ExportFormat()))

	pp.syncing = true
	pp.format.SetSelected(string(pp.state.ExportFormat()))
	pp.syncing = false
}

func (pp *PagesPanel) selectCurrent() {
	pp.syncing = true
	defer func() { pp.syncing = false }()
	if i := pp.state.PageIndex(); i >= 0 {
		pp.list.Select(i)
	} else {
		pp.list.UnselectAll()
	}
}
