// Package panels provides UI panels for the application.
package panels

import (
	"panel-cropper/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	detectionPanel *DetectionPanel
	pagesPanel     *PagesPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{state: state}

	sp.detectionPanel = NewDetectionPanel(state)
	sp.pagesPanel = NewPagesPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Detection", sp.detectionPanel.Container()),
		container.NewTabItem("Pages", sp.pagesPanel.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// Refresh re-reads everything shown from state.
func (sp *SidePanel) Refresh() {
	sp.detectionPanel.SyncParams()
	sp.pagesPanel.Sync()
}
