package main

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/clipboard"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/fjl/decicalc/internal/config"
	"github.com/fjl/decicalc/internal/history"
	"github.com/fjl/decicalc/internal/logger"
	"github.com/fjl/decicalc/internal/mathexpr"
)

var (
	digitColor       = color.NRGBA{90, 90, 90, 255}
	specialColor     = color.NRGBA{70, 70, 70, 255}
	opColor          = color.NRGBA{122, 90, 90, 255}
	activeOpColor    = color.NRGBA{160, 90, 90, 255}
	backgroundColor  = color.NRGBA{50, 50, 50, 255}
	resultColor      = color.NRGBA{255, 255, 255, 255}
	resultBackground = color.NRGBA{35, 35, 35, 255}
	historyColor     = color.NRGBA{150, 150, 150, 255}
	errorColor       = color.NRGBA{255, 119, 119, 255}

	designWidth  = unit.Dp(270)
	designHeight = unit.Dp(420)
	controlInset = unit.Dp(6)
	cornerRadius = unit.Dp(3.5)
)

// calcUI is the user interface of the calculator.
type calcUI struct {
	calc    *calculator
	history *historyModel
	theme   *material.Theme
	buttons [6][4]*button
	list    layout.List

	cornerRadius int
	gridSpacing  int
}

func newUI(theme *material.Theme, calc *calculator, hist *historyModel) *calcUI {
	ui := &calcUI{
		calc:    calc,
		history: hist,
		theme:   theme,
		list:    layout.List{Axis: layout.Vertical, ScrollToEnd: true},
	}
	var (
		reset    = ui.special("AC", ui.calc.reset)
		rubout   = ui.special("⌫", ui.calc.rubout)
		percent  = ui.special("%", func() { ui.calc.percent() })
		open     = ui.special("(", func() { ui.calc.openParen() })
		closeP   = ui.special(")", func() { ui.calc.closeParen() })
		sign     = ui.special("±", func() { ui.calc.flipSign() })
		decimal  = ui.special(".", func() { ui.calc.digit(".") })
		equals   = ui.special("=", func() { ui.calc.equals() })
		clearHis = ui.special("CH", ui.history.clear)
	)
	equals.color = opColor
	ui.buttons = [6][4]*button{
		{reset, rubout, percent, ui.op(opDiv)},
		{open, closeP, sign, ui.op(opMul)},
		{ui.digit("7"), ui.digit("8"), ui.digit("9"), ui.op(opSub)},
		{ui.digit("4"), ui.digit("5"), ui.digit("6"), ui.op(opAdd)},
		{ui.digit("1"), ui.digit("2"), ui.digit("3"), equals},
		{nil, ui.digit("0"), decimal, clearHis},
	}
	return ui
}

// digit creates a digit button.
func (ui *calcUI) digit(input string) *button {
	b := newButton(ui.calc, input, digitColor)
	b.action = func() { ui.calc.digit(input) }
	return b
}

// op creates an operation button.
func (ui *calcUI) op(op rune) *button {
	b := newButton(ui.calc, string(op), opColor)
	b.action = func() { ui.calc.op(op) }
	b.op = op
	return b
}

// special creates a special operation button.
func (ui *calcUI) special(name string, fn func()) *button {
	b := newButton(ui.calc, name, specialColor)
	b.action = fn
	return b
}

// Layout draws the UI.
func (ui *calcUI) Layout(gtx layout.Context) layout.Dimensions {
	// Adapt design for screen size.
	scaleFactor := float32(gtx.Constraints.Max.X) / float32(gtx.Dp(designWidth))
	ui.cornerRadius = gtx.Dp(cornerRadius * unit.Dp(scaleFactor))
	ui.gridSpacing = gtx.Dp(controlInset * unit.Dp(scaleFactor))

	// Handle key events.
	ui.layoutInput(gtx)

	inset := layout.UniformInset(controlInset)
	return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		flex := layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceStart}
		return flex.Layout(gtx,
			layout.Flexed(28, func(gtx layout.Context) layout.Dimensions {
				return inset.Layout(gtx, ui.layoutResult)
			}),
			layout.Flexed(72, func(gtx layout.Context) layout.Dimensions {
				return inset.Layout(gtx, ui.layoutButtons)
			}),
		)
	})
}

func (ui *calcUI) layoutResult(gtx layout.Context) layout.Dimensions {
	rect := image.Rectangle{Max: gtx.Constraints.Max}
	rr := clip.UniformRRect(rect, ui.cornerRadius)
	paint.FillShape(gtx.Ops, resultBackground, rr.Op(gtx.Ops))

	inset := layout.UniformInset(controlInset)
	return inset.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Flexed(0.35, ui.layoutHistory),
			layout.Flexed(0.45, ui.layoutResultText),
			layout.Flexed(0.2, ui.layoutStatus),
		)
	})
}

// layoutHistory draws recent results. Clicking one inserts it into the expression.
func (ui *calcUI) layoutHistory(gtx layout.Context) layout.Dimensions {
	items := ui.history.items
	for _, it := range items {
		if it.click.Clicked() {
			ui.calc.useResult(it.entry.Result)
		}
		if it.remove.Clicked() {
			ui.history.remove(it.id)
		}
	}

	lineHeight := float32(gtx.Constraints.Max.Y) / 3
	textSize := unit.Sp(lineHeight / 1.4 / gtx.Metric.PxPerSp)
	return ui.list.Layout(gtx, len(items), func(gtx layout.Context, i int) layout.Dimensions {
		it := items[i]
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return it.click.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					l := material.Label(ui.theme, textSize, it.entry.Expression+" = "+it.entry.Result)
					l.Color = historyColor
					l.MaxLines = 1
					l.Alignment = text.End
					gtx.Constraints.Min.X = gtx.Constraints.Max.X
					return l.Layout(gtx)
				})
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return it.remove.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					l := material.Label(ui.theme, textSize, " ✕")
					l.Color = historyColor
					return l.Layout(gtx)
				})
			}),
		)
	})
}

func (ui *calcUI) layoutResultText(gtx layout.Context) layout.Dimensions {
	// Scale font based on height.
	fontSizePx := float32(gtx.Constraints.Max.Y) / 1.1
	fontSizeSp := unit.Sp(fontSizePx / gtx.Metric.PxPerSp)

	l := material.Label(ui.theme, fontSizeSp, ui.calc.text())
	l.Color = resultColor
	l.MaxLines = 1
	return shrinkToFit(gtx, l.Layout)
}

// layoutStatus shows the last evaluation or storage error.
func (ui *calcUI) layoutStatus(gtx layout.Context) layout.Dimensions {
	msg := ui.calc.err
	if msg == "" && ui.history.lastError != nil {
		msg = fmt.Sprintf("History: %v", ui.history.lastError)
	}
	textSize := unit.Sp(float32(gtx.Constraints.Max.Y) / 1.4 / gtx.Metric.PxPerSp)
	return showIf(msg != "", gtx, func(gtx layout.Context) layout.Dimensions {
		l := material.Label(ui.theme, textSize, msg)
		l.Color = errorColor
		l.MaxLines = 1
		l.Alignment = text.End
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return l.Layout(gtx)
	})
}

func (ui *calcUI) layoutButtons(gtx layout.Context) layout.Dimensions {
	g := grid{
		rows:    len(ui.buttons),
		cols:    len(ui.buttons[0]),
		spacing: ui.gridSpacing,
	}
	return g.layout(gtx, func(row, col int, gtx layout.Context) layout.Dimensions {
		if b := ui.buttons[row][col]; b != nil {
			return ui.layoutButton(gtx, b)
		}
		return layout.Dimensions{}
	})
}

func (ui *calcUI) layoutButton(gtx layout.Context, b *button) layout.Dimensions {
	if b.clicker.Clicked() && b.action != nil {
		b.action()
	}

	return b.clicker.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		textSizePx := float32(gtx.Constraints.Max.Y) / 2.2
		textSizeSp := unit.Sp(textSizePx / gtx.Metric.PxPerSp)

		style := material.Button(ui.theme, &b.clicker, b.text)
		style.Background = b.color
		style.Inset = layout.Inset{}
		style.TextSize = textSizeSp
		style.CornerRadius = unit.Dp(float32(ui.cornerRadius) / gtx.Metric.PxPerDp)
		if b.op != 0 && b.calc.pendingOp() == b.op {
			style.Background = activeOpColor
		}
		return style.Layout(gtx)
	})
}

// layoutInput registers the global key handler.
func (ui *calcUI) layoutInput(gtx layout.Context) {
	// Register handler for key events.
	input := key.InputOp{
		Tag:  ui,
		Hint: key.HintNumeric,
		Keys: "Short-[C,V]|(Shift)-[0,1,2,3,4,5,6,7,8,9,.,+,*,/,%,=,(,),⌤,⏎,⌫,⌦,⎋]|(Alt)-(Shift)-[-]",
	}
	input.Add(gtx.Ops)

	// Request keyboard focus. This is required to make the Return key work.
	key.FocusOp{Tag: ui}.Add(gtx.Ops)

	for _, ev := range gtx.Queue.Events(ui) {
		switch ev := ev.(type) {
		case key.Event:
			switch {
			case isCopy(ev):
				op := clipboard.WriteOp{Text: ui.calc.text()}
				op.Add(gtx.Ops)
			case isPaste(ev):
				op := clipboard.ReadOp{Tag: ui}
				op.Add(gtx.Ops)
			default:
				ui.handleKey(ev)
			}

		case clipboard.Event:
			ui.calc.parse(ev.Text)
		}
	}
}

func isCopy(e key.Event) bool {
	return e.Name == "C" && e.Modifiers.Contain(key.ModShortcut)
}

func isPaste(e key.Event) bool {
	return e.Name == "V" && e.Modifiers.Contain(key.ModShortcut)
}

// handleKey handles a key event.
func (ui *calcUI) handleKey(e key.Event) {
	if e.State == key.Release {
		return
	}

	switch e.Name {
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ".":
		ui.calc.digit(e.Name)
	case "+":
		ui.calc.op(opAdd)
	case "-":
		if e.Modifiers.Contain(key.ModAlt) {
			ui.calc.flipSign()
		} else {
			ui.calc.op(opSub)
		}
	case "*":
		ui.calc.op(opMul)
	case "/":
		ui.calc.op(opDiv)
	case "%":
		ui.calc.percent()
	case "(":
		ui.calc.openParen()
	case ")":
		ui.calc.closeParen()
	case "=", key.NameEnter, key.NameReturn:
		ui.calc.equals()
	case key.NameDeleteBackward, key.NameDeleteForward:
		ui.calc.rubout()
	case key.NameEscape:
		ui.calc.reset()
	}
}

// button is a clickable button.
type button struct {
	calc   *calculator
	op     rune
	text   string
	action func()

	color   color.NRGBA
	clicker widget.Clickable
}

func newButton(calc *calculator, text string, color color.NRGBA) *button {
	return &button{calc: calc, text: text, color: color}
}

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, logFile, err := logger.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		size     = app.Size(designWidth, designHeight)
		statusBg = app.StatusColor(backgroundColor)
		sysBg    = app.NavigationColor(backgroundColor)
		title    = app.Title("GioCalc")
		portrait = app.PortraitOrientation.Option()
	)
	go func() {
		w := app.NewWindow(statusBg, sysBg, size, title, portrait)
		w.Option(app.MinSize(designWidth, designHeight))

		err := loop(w, cfg, log)
		logFile.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

// loop is the main loop of the app.
func loop(w *app.Window, cfg *config.Config, log *slog.Logger) error {
	datadir, err := app.DataDir()
	if err != nil {
		return err
	}
	store := history.NewStore(filepath.Join(datadir, "decicalc", "history"), log)
	defer store.Close()

	var (
		th   = material.NewTheme(gofont.Collection())
		hist = newHistoryModel(store, cfg.HistoryLimit)
		calc = newCalculator(mathexpr.New(cfg.EvaluatorOptions()))
		ui   = newUI(th, calc, hist)
		ops  op.Ops
	)
	calc.onEval = func(expr, result string, err error) {
		log.Debug("evaluated", "expr", expr, "result", result, "err", err)
		hist.record(expr, result, err)
	}

	for {
		select {
		case e := <-store.Events():
			hist.handleStoreEvent(e)
			w.Invalidate()
		case e := <-w.Events():
			switch e := e.(type) {
			case system.StageEvent:
				if e.Stage == system.StagePaused {
					store.Persist()
				}
			case system.DestroyEvent:
				return e.Err
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				paint.Fill(gtx.Ops, backgroundColor)
				ui.Layout(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}
}
