// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"panel-cropper/internal/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SettingsDialog provides a property sheet for the session settings that
// are not on the side panel.
type SettingsDialog struct {
	cfg    config.Config
	window fyne.Window

	// Interaction
	handleEntry    *widget.Entry
	minCreateEntry *widget.Entry
	historyEntry   *widget.Entry
	debounceEntry  *widget.Entry

	// Pages
	workersEntry *widget.Entry
	dpiEntry     *widget.Entry
	cacheEntry   *widget.Entry

	// Export
	formatSelect *widget.Select
	counterEntry *widget.Entry
	logSelect    *widget.Select

	// Callback
	onSave func(config.Config)
}

// NewSettingsDialog creates a new settings dialog editing a copy of cfg.
func NewSettingsDialog(cfg config.Config, window fyne.Window, onSave func(config.Config)) *SettingsDialog {
	d := &SettingsDialog{
		cfg:    cfg,
		window: window,
		onSave: onSave,
	}
	return d
}

// Show displays the dialog.
func (d *SettingsDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			cfg, err := d.applyChanges()
			if err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			if d.onSave != nil {
				d.onSave(cfg)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(420, 560))
	dlg.Show()
}

func (d *SettingsDialog) createContent() fyne.CanvasObject {
	newEntry := func(text string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(text)
		return e
	}

	d.handleEntry = newEntry(formatFloat(d.cfg.HandleSize))
	d.minCreateEntry = newEntry(formatFloat(d.cfg.MinCreateSize))
	d.historyEntry = newEntry(strconv.Itoa(d.cfg.HistoryDepth))
	d.debounceEntry = newEntry(strconv.FormatInt(d.cfg.Debounce.Milliseconds(), 10))

	d.workersEntry = newEntry(strconv.Itoa(d.cfg.Workers))
	d.dpiEntry = newEntry(formatFloat(d.cfg.PDFDPI))
	d.cacheEntry = newEntry(strconv.Itoa(d.cfg.PageCache))

	d.formatSelect = widget.NewSelect([]string{"png", "jpeg", "webp"}, nil)
	d.formatSelect.SetSelected(d.cfg.Export.Format)
	d.counterEntry = newEntry(strconv.Itoa(d.cfg.Export.StartCounter))
	d.logSelect = widget.NewSelect([]string{"debug", "info", "warn", "error"}, nil)
	d.logSelect.SetSelected(d.cfg.LogLevel)

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Editing", "", widget.NewForm(
			widget.NewFormItem("Handle size (px)", d.handleEntry),
			widget.NewFormItem("Min new region (px)", d.minCreateEntry),
			widget.NewFormItem("Undo depth (0 = unlimited)", d.historyEntry),
			widget.NewFormItem("Re-detect delay (ms)", d.debounceEntry),
		)),
		widget.NewCard("Pages", "", widget.NewForm(
			widget.NewFormItem("Batch workers (0 = auto)", d.workersEntry),
			widget.NewFormItem("PDF render DPI", d.dpiEntry),
			widget.NewFormItem("Cached pages", d.cacheEntry),
		)),
		widget.NewCard("Export", "", widget.NewForm(
			widget.NewFormItem("Format", d.formatSelect),
			widget.NewFormItem("First panel number", d.counterEntry),
			widget.NewFormItem("Log level", d.logSelect),
		)),
	))
}

// applyChanges parses the form into a validated copy of the settings.
func (d *SettingsDialog) applyChanges() (config.Config, error) {
	cfg := d.cfg
	var err error
	parseInt := func(e *widget.Entry, name string, dst *int) {
		if err != nil {
			return
		}
		v, perr := strconv.Atoi(strings.TrimSpace(e.Text))
		if perr != nil {
			err = fmt.Errorf("%s: %q is not a whole number", name, e.Text)
			return
		}
		*dst = v
	}
	parseFloat := func(e *widget.Entry, name string, dst *float64) {
		if err != nil {
			return
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(e.Text), 64)
		if perr != nil {
			err = fmt.Errorf("%s: %q is not a number", name, e.Text)
			return
		}
		*dst = v
	}

	var debounceMs int
	parseFloat(d.handleEntry, "handle size", &cfg.HandleSize)
	parseFloat(d.minCreateEntry, "min new region", &cfg.MinCreateSize)
	parseInt(d.historyEntry, "undo depth", &cfg.HistoryDepth)
	parseInt(d.debounceEntry, "re-detect delay", &debounceMs)
	parseInt(d.workersEntry, "batch workers", &cfg.Workers)
	parseFloat(d.dpiEntry, "PDF render DPI", &cfg.PDFDPI)
	parseInt(d.cacheEntry, "cached pages", &cfg.PageCache)
	parseInt(d.counterEntry, "first panel number", &cfg.Export.StartCounter)
	if err != nil {
		return d.cfg, err
	}
	cfg.Debounce = time.Duration(debounceMs) * time.Millisecond
	cfg.Export.Format = d.formatSelect.Selected
	cfg.LogLevel = d.logSelect.Selected

	if err := cfg.Validate(); err != nil {
		return d.cfg, err
	}
	return cfg, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
