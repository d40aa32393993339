// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"panel-cropper/internal/app"
	"panel-cropper/internal/config"
	"panel-cropper/internal/export"
	pageimage "panel-cropper/internal/image"
	"panel-cropper/internal/source"
	"panel-cropper/internal/version"
	"panel-cropper/ui/canvas"
	"panel-cropper/ui/dialogs"
	"panel-cropper/ui/panels"
	"panel-cropper/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Panel Cropper"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	cfgMu   sync.Mutex
	cfg     config.Config
	cfgPath string

	canvas    *canvas.PageCanvas
	side      *panels.SidePanel
	statusBar *widget.Label
	progress  *widget.ProgressBar

	prevBtn, nextBtn    *widget.Button
	detectBtn, batchBtn *widget.Button
	approveBtn, saveBtn *widget.Button
	undoBtn, redoBtn    *widget.Button
	deleteBtn, clearBtn *widget.Button
	cancelBatchBtn      *widget.Button

	batchMu     sync.Mutex
	cancelBatch context.CancelFunc
}

// New creates the main window. cfgPath is where the settings dialog saves.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, cfg config.Config, cfgPath string) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		state:   state,
		prefs:   p,
		cfg:     cfg,
		cfgPath: cfgPath,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.updateControls()

	win.Resize(fyne.NewSize(
		float32(p.Float(prefs.KeyWindowWidth, 1280)),
		float32(p.Float(prefs.KeyWindowHeight, 860)),
	))
	win.SetOnClosed(mw.savePreferences)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state)
	mw.side = panels.NewSidePanel(mw.state)
	mw.statusBar = widget.NewLabel("Open pages to begin.")
	mw.progress = widget.NewProgressBar()
	mw.progress.Hide()

	split := container.NewHSplit(mw.canvas, mw.side.Container())
	split.SetOffset(0.8)

	content := container.NewBorder(
		mw.createToolbar(), // top
		container.NewBorder(nil, nil, nil, container.NewPadded(mw.progress), container.NewPadded(mw.statusBar)), // bottom
		nil,   // left
		nil,   // right
		split, // center
	)
	mw.SetContent(content)
}

// createToolbar creates the row of action buttons.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), mw.onPrev)
	mw.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), mw.onNext)
	mw.detectBtn = widget.NewButtonWithIcon("Detect", theme.SearchIcon(), mw.onDetect)
	mw.batchBtn = widget.NewButtonWithIcon("Batch Detect", theme.MediaPlayIcon(), mw.onBatch)
	mw.approveBtn = widget.NewButtonWithIcon("Approve & Next", theme.ConfirmIcon(), mw.onApprove)
	mw.cancelBatchBtn = widget.NewButtonWithIcon("", theme.CancelIcon(), mw.onCancelBatch)
	mw.saveBtn = widget.NewButtonWithIcon("Save Page", theme.DocumentSaveIcon(), mw.onSavePage)
	mw.undoBtn = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), mw.onUndo)
	mw.redoBtn = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), mw.onRedo)
	mw.deleteBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), mw.onDelete)
	mw.clearBtn = widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), mw.onClear)

	return container.NewHBox(
		widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), mw.onOpenFolder),
		widget.NewButtonWithIcon("Output", theme.FolderIcon(), func() { mw.chooseOutputDir(nil) }),
		widget.NewSeparator(),
		mw.prevBtn, mw.nextBtn,
		widget.NewSeparator(),
		mw.detectBtn, mw.batchBtn, mw.approveBtn, mw.cancelBatchBtn, mw.saveBtn,
		widget.NewSeparator(),
		mw.undoBtn, mw.redoBtn, mw.deleteBtn, mw.clearBtn,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), mw.canvas.ZoomOut),
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), mw.canvas.ZoomIn),
		widget.NewButtonWithIcon("", theme.ZoomFitIcon(), mw.state.FitView),
		layout.NewSpacer(),
		widget.NewButtonWithIcon("", theme.SettingsIcon(), mw.onSettings),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItem("Open File or PDF...", mw.onOpenFile),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Output Folder...", func() { mw.chooseOutputDir(nil) }),
		fyne.NewMenuItem("Save Page", mw.onSavePage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", mw.onSettings),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", mw.state.SelectAll),
		fyne.NewMenuItem("Delete Selected", mw.onDelete),
		fyne.NewMenuItem("Clear All", mw.onClear),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.state.FitView),
	)

	pagesMenu := fyne.NewMenu("Pages",
		fyne.NewMenuItem("Previous", mw.onPrev),
		fyne.NewMenuItem("Next", mw.onNext),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Detect Panels", mw.onDetect),
		fyne.NewMenuItem("Batch Detect All Pages", mw.onBatch),
		fyne.NewMenuItem("Approve & Next", mw.onApprove),
		fyne.NewMenuItem("Cancel Batch Review", mw.onCancelBatch),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, pagesMenu, helpMenu))
}

// setupShortcuts binds keyboard shortcuts.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	add := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) { fn() })
	}
	add(fyne.KeyZ, fyne.KeyModifierShortcutDefault, mw.onUndo)
	add(fyne.KeyY, fyne.KeyModifierShortcutDefault, mw.onRedo)
	add(fyne.KeyZ, fyne.KeyModifierShortcutDefault|fyne.KeyModifierShift, mw.onRedo)
	add(fyne.KeyA, fyne.KeyModifierShortcutDefault, mw.state.SelectAll)
	add(fyne.KeyS, fyne.KeyModifierShortcutDefault, mw.onSavePage)
	add(fyne.KeyO, fyne.KeyModifierShortcutDefault, mw.onOpenFolder)

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDelete()
		case fyne.KeyEscape:
			mw.state.Escape()
		case fyne.KeyLeft, fyne.KeyPageUp:
			mw.onPrev()
		case fyne.KeyRight, fyne.KeyPageDown:
			mw.onNext()
		case fyne.KeyReturn, fyne.KeyEnter:
			mw.onApprove()
		case fyne.KeyD:
			mw.onDetect()
		}
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSceneChanged, func(interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventStatus, func(data interface{}) {
		if text, ok := data.(string); ok {
			mw.updateStatus(text)
		}
	})

	mw.state.On(app.EventPageChanged, func(interface{}) {
		mw.SetTitle(fmt.Sprintf("%s - %s [%d/%d]", appTitle, mw.state.PageName(),
			mw.state.PageIndex()+1, mw.state.PageCount()))
		mw.updateControls()
	})

	mw.state.On(app.EventRegionsChanged, func(interface{}) {
		mw.updateControls()
	})

	mw.state.On(app.EventBatchProgress, func(data interface{}) {
		if p, ok := data.(app.Progress); ok && p.Total > 0 {
			mw.progress.SetValue(float64(p.Done) / float64(p.Total))
		}
	})

	mw.state.On(app.EventBatchChanged, func(interface{}) {
		if mw.state.Batching() {
			mw.progress.SetValue(0)
			mw.progress.Show()
		} else {
			mw.progress.Hide()
		}
		mw.updateControls()
	})
}

// updateControls enables the actions that apply to the current state.
func (mw *MainWindow) updateControls() {
	hasPages := mw.state.PageCount() > 0
	reviewing := mw.state.Reviewing()
	batching := mw.state.Batching()
	prev, next := mw.state.CanNavigate()
	undo, redo := mw.state.CanUndo()

	setEnabled(mw.prevBtn, prev)
	setEnabled(mw.nextBtn, next)
	setEnabled(mw.detectBtn, hasPages && !reviewing && !batching)
	setEnabled(mw.batchBtn, hasPages && !batching)
	setEnabled(mw.approveBtn, reviewing)
	setEnabled(mw.cancelBatchBtn, reviewing || batching)
	setEnabled(mw.saveBtn, hasPages && !reviewing)
	setEnabled(mw.undoBtn, undo)
	setEnabled(mw.redoBtn, redo)
	setEnabled(mw.deleteBtn, hasPages)
	setEnabled(mw.clearBtn, hasPages)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) showError(err error) {
	mw.updateStatus(err.Error())
	dialog.ShowError(err, mw.Window)
}

// dirURI returns a dialog start location for a remembered directory.
func (mw *MainWindow) dirURI(key string) fyne.ListableURI {
	dir := mw.prefs.Dir(key)
	if dir == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) savePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if dir := mw.state.OutputDir(); dir != "" {
		mw.prefs.SetString(prefs.KeyOutputDir, dir)
	}
	if err := mw.prefs.Save(); err != nil {
		fyne.LogError("failed to save preferences", err)
	}
}

// Opening pages

// OpenPaths loads pages from command line style inputs.
func (mw *MainWindow) OpenPaths(paths []string) {
	src, err := source.Open(paths, mw.config().PDFDPI)
	if err != nil {
		mw.showError(err)
		return
	}
	mw.loadSource(src)
}

func (mw *MainWindow) loadSource(src source.Source) {
	if err := mw.state.LoadPages(src); err != nil {
		mw.showError(err)
	}
	mw.updateControls()
	if mw.state.OutputDir() == "" {
		if dir := mw.prefs.Dir(prefs.KeyOutputDir); dir != "" {
			mw.state.SetOutputDir(dir)
		}
	}
	mw.side.Refresh()
}

func (mw *MainWindow) onOpenFolder() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		mw.prefs.SetString(prefs.KeyPagesDir, dir)
		src, err := source.NewDirSource(dir)
		if err != nil {
			mw.showError(err)
			return
		}
		mw.loadSource(src)
	}, mw.Window)
	if loc := mw.dirURI(prefs.KeyPagesDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.OpenPaths([]string{reader.URI().Path()})
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(append([]string{".pdf"}, pageimage.Extensions...)))
	if loc := mw.dirURI(prefs.KeyPagesDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// chooseOutputDir asks for the export folder. done, if set, is called with
// whether a folder was chosen.
func (mw *MainWindow) chooseOutputDir(done func(bool)) {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		ok := err == nil && uri != nil
		if ok {
			mw.state.SetOutputDir(uri.Path())
			mw.prefs.SetString(prefs.KeyOutputDir, uri.Path())
			mw.side.Refresh()
		}
		if done != nil {
			done(ok)
		}
	}, mw.Window)
	if loc := mw.dirURI(prefs.KeyOutputDir); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// Actions

func (mw *MainWindow) onPrev() {
	if prev, _ := mw.state.CanNavigate(); prev {
		if err := mw.state.Prev(); err != nil {
			mw.updateStatus(err.Error())
		}
	}
}

func (mw *MainWindow) onNext() {
	if _, next := mw.state.CanNavigate(); next {
		if err := mw.state.Next(); err != nil {
			mw.updateStatus(err.Error())
		}
	}
}

func (mw *MainWindow) onDetect() {
	if mw.state.PageCount() == 0 || mw.state.Reviewing() || mw.state.Batching() {
		return
	}
	go func() {
		if err := mw.state.DetectCurrent(); err != nil {
			mw.updateStatus(err.Error())
		}
	}()
}

func (mw *MainWindow) onBatch() {
	if mw.state.PageCount() == 0 || mw.state.Batching() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	mw.batchMu.Lock()
	mw.cancelBatch = cancel
	mw.batchMu.Unlock()

	go func() {
		defer cancel()
		if err := mw.state.StartBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			mw.updateStatus(err.Error())
		}
		mw.updateControls()
	}()
}

func (mw *MainWindow) onCancelBatch() {
	mw.batchMu.Lock()
	if mw.cancelBatch != nil {
		mw.cancelBatch()
		mw.cancelBatch = nil
	}
	mw.batchMu.Unlock()
	mw.state.CancelBatch()
	mw.updateControls()
}

func (mw *MainWindow) onApprove() {
	if !mw.state.Reviewing() {
		return
	}
	mw.exportWith(mw.state.ApprovePage)
}

func (mw *MainWindow) onSavePage() {
	if mw.state.PageCount() == 0 || mw.state.Reviewing() {
		return
	}
	mw.exportWith(mw.state.SavePage)
}

// exportWith runs an export action, asking once for an output folder if
// none is set. Declining leaves every region as it was.
func (mw *MainWindow) exportWith(action func() (export.Result, error)) {
	res, err := action()
	if errors.Is(err, export.ErrNoOutputDir) {
		mw.chooseOutputDir(func(ok bool) {
			if !ok {
				mw.updateStatus("Export cancelled: no output folder.")
				return
			}
			mw.exportWith(action)
		})
		return
	}
	if err != nil {
		mw.showError(err)
		return
	}
	if len(res.Files) > 0 {
		mw.updateStatus(res.String())
	}
	mw.updateControls()
}

func (mw *MainWindow) onUndo() {
	mw.state.Undo()
}

func (mw *MainWindow) onRedo() {
	mw.state.Redo()
}

func (mw *MainWindow) onDelete() {
	mw.state.DeleteSelected()
}

func (mw *MainWindow) onClear() {
	if mw.state.ClearAll() {
		mw.updateStatus("Selections cleared.")
	}
}

func (mw *MainWindow) config() config.Config {
	mw.cfgMu.Lock()
	defer mw.cfgMu.Unlock()
	return mw.cfg
}

// ApplyConfig takes new settings, from the dialog or a config file reload.
// Settings equal to the ones already applied are ignored.
func (mw *MainWindow) ApplyConfig(cfg config.Config) {
	mw.cfgMu.Lock()
	if cfg == mw.cfg {
		mw.cfgMu.Unlock()
		return
	}
	mw.cfg = cfg
	mw.cfgMu.Unlock()
	mw.state.ApplyConfig(cfg)
	mw.side.Refresh()
}

func (mw *MainWindow) onSettings() {
	cfg := mw.config()
	cfg.Detection = mw.state.Params()
	cfg.Export.Dir = mw.state.OutputDir()
	cfg.Export.Format = string(mw.state.ExportFormat())

	dialogs.NewSettingsDialog(cfg, mw.Window, func(cfg config.Config) {
		mw.ApplyConfig(cfg)
		if err := config.Save(cfg, mw.cfgPath); err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus("Settings saved.")
	}).Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\n\n"+
			"Detect, adjust and export comic panels page by page.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
