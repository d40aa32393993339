package panels

import (
	"fmt"

	"panel-cropper/internal/app"
	"panel-cropper/internal/detect"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DetectionPanel edits the panel detection parameters. Every change is sent
// to state, which re-runs detection on the current page after a short pause.
type DetectionPanel struct {
	state     *app.State
	container fyne.CanvasObject

	areaLabel, solidityLabel, kernelLabel    *widget.Label
	areaSlider, soliditySlider, kernelSlider *widget.Slider

	syncing bool
}

// NewDetectionPanel creates a new detection panel.
func NewDetectionPanel(state *app.State) *DetectionPanel {
	dp := &DetectionPanel{state: state}

	dp.areaLabel = widget.NewLabel("")
	dp.areaSlider = widget.NewSlider(0, detect.MaxAreaPercent)
	dp.areaSlider.Step = 0.1
	dp.areaSlider.OnChanged = func(v float64) {
		dp.update(func(p detect.Params) detect.Params { return p.WithMinArea(v) })
	}

	dp.solidityLabel = widget.NewLabel("")
	dp.soliditySlider = widget.NewSlider(0, 1)
	dp.soliditySlider.Step = 0.01
	dp.soliditySlider.OnChanged = func(v float64) {
		dp.update(func(p detect.Params) detect.Params { return p.WithSolidity(v) })
	}

	dp.kernelLabel = widget.NewLabel("")
	dp.kernelSlider = widget.NewSlider(1, detect.MaxKernelSize)
	dp.kernelSlider.Step = 2
	dp.kernelSlider.OnChanged = func(v float64) {
		dp.update(func(p detect.Params) detect.Params { return p.WithKernel(int(v)) })
	}

	resetBtn := widget.NewButton("Reset Defaults", func() {
		state.SetParams(detect.DefaultParams())
		dp.SyncParams()
	})

	dp.container = container.NewVBox(
		widget.NewCard("Panel Detection", "", container.NewVBox(
			dp.areaLabel, dp.areaSlider,
			dp.solidityLabel, dp.soliditySlider,
			dp.kernelLabel, dp.kernelSlider,
			resetBtn,
		)),
		widget.NewLabel("Changes re-detect the current page.\nBatch review pages keep their regions."),
	)

	state.On(app.EventParamsChanged, func(interface{}) {
		dp.SyncParams()
	})
	dp.SyncParams()
	return dp
}

// Container returns the panel container.
func (dp *DetectionPanel) Container() fyne.CanvasObject {
	return dp.container
}

// SyncParams moves the sliders to the current state parameters.
func (dp *DetectionPanel) SyncParams() {
	p := dp.state.Params()
	dp.syncing = true
	dp.areaSlider.SetValue(p.MinAreaPercent)
	dp.soliditySlider.SetValue(p.MinSolidity)
	dp.kernelSlider.SetValue(float64(p.Kernel()))
	dp.syncing = false
	dp.setLabels(p)
}

func (dp *DetectionPanel) update(fn func(detect.Params) detect.Params) {
	if dp.syncing {
		return
	}
	p := fn(dp.state.Params())
	dp.setLabels(p)
	dp.state.SetParams(p)
}

func (dp *DetectionPanel) setLabels(p detect.Params) {
	dp.areaLabel.SetText(fmt.Sprintf("Min area: %.1f%%", p.MinAreaPercent))
	dp.solidityLabel.SetText(fmt.Sprintf("Min solidity: %.2f", p.MinSolidity))
	dp.kernelLabel.SetText(fmt.Sprintf("Closing kernel: %dpx", p.Kernel()))
}
