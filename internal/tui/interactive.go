package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/glutensim/internal/sim"
)

const historyLen = 120

type model struct {
	engine *sim.Engine
	title  string

	history   []float64
	lastFrame time.Time
	fps       float64
	ticks     int
	status    string
	theme     int

	width  int
	height int
}

func newModel(e *sim.Engine, title string) model {
	return model{
		engine:  e,
		title:   title,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  32,
	}
}

func (m model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			frame := now.Sub(m.lastFrame).Seconds()
			if frame > 0 {
				m.fps = 1.0 / frame
			}
			m.ticks = m.engine.Advance(frame)
		}
		m.lastFrame = now

		if m.ticks > 0 {
			m.history = append(m.history, m.engine.Stats().Modulus)
			if len(m.history) > historyLen {
				m.history = m.history[1:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	p := m.engine.Params()
	var err error

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.engine.TogglePause()
	case "r":
		m.engine.Reset()
		m.history = m.history[:0]
	case "t":
		err = m.engine.SetTemperature(max(0, p.Temperature-5))
	case "T":
		err = m.engine.SetTemperature(p.Temperature + 5)
	case "b":
		err = m.engine.SetBondProbability(max(0, p.BondProbability-0.05))
	case "B":
		err = m.engine.SetBondProbability(min(1, p.BondProbability+0.05))
	case "g":
		err = m.engine.SetGravityMode((p.Gravity + 1) % 3)
	case "m":
		err = m.engine.SetMixerSpeed(max(0, p.MixerSpeed-0.5))
	case "M":
		err = m.engine.SetMixerSpeed(p.MixerSpeed + 0.5)
	case "+", "=":
		err = m.engine.SetTimeScale(min(p.TimeScale*2, 8))
	case "-", "_":
		err = m.engine.SetTimeScale(max(p.TimeScale/2, 0.125))
	case "0":
		err = m.engine.SetTimeScale(1)
	case "c":
		m.theme = (m.theme + 1) % len(themes)
	}

	if err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
	return m, nil
}

func (m model) View() string {
	cw := max(m.width-6, 40)
	ch := max(m.height-14, 12)

	snap := m.engine.Snapshot()
	stats := m.engine.Stats()
	p := m.engine.Params()

	st := themes[m.theme].styles()
	cyan, white, dim, dimmer := st.title, st.text, st.muted, st.faint
	green, yellow, red, magenta := st.bonds, st.paused, st.broken, st.modulus

	c := newCanvas(cw, ch)
	drawTopDown(c, snap)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if p.Paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n\n",
		statusIcon, cyan.Render(m.title), statusText,
		dim.Render(fmt.Sprintf("t=%.2fs  tick %d  %.0ffps", stats.Time, stats.Tick, m.fps))))

	for _, row := range c.rows() {
		b.WriteString("   " + row + "\n")
	}

	b.WriteString(fmt.Sprintf("\n   %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("agents"), white.Render(fmt.Sprint(stats.Agents)),
		dim.Render("bonds"), green.Render(fmt.Sprint(stats.Bonds)),
		dim.Render("broken"), red.Render(fmt.Sprint(stats.Broken)),
		dim.Render("modulus"), magenta.Render(fmt.Sprintf("%.3f", stats.Modulus))))
	if stats.Outside > 0 {
		b.WriteString("   " + yellow.Render(fmt.Sprintf("%d agents outside the grid", stats.Outside)) + "\n")
	}

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("E"), cyan.Render(sparkline(m.history, min(cw-4, historyLen)))))
	}

	b.WriteString(fmt.Sprintf("\n   %s %s  %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("temp"), white.Render(fmt.Sprintf("%.0f", p.Temperature)),
		dim.Render("bond p"), white.Render(fmt.Sprintf("%.2f", p.BondProbability)),
		dim.Render("gravity"), white.Render(p.Gravity.String()),
		dim.Render("mixer"), white.Render(fmt.Sprintf("%.1f", p.MixerSpeed)),
		dim.Render("speed"), white.Render(fmt.Sprintf("%.2gx", p.TimeScale))))

	if m.status != "" {
		b.WriteString("   " + red.Render(m.status) + "\n")
	}

	b.WriteString("\n" + dimmer.Render("   space pause  t/T temp  b/B bond  g gravity  m/M mixer  ±speed  c theme  r reset  q quit") + "\n")

	return b.String()
}

// RunLive drives e from a full-screen dashboard until the user quits.
func RunLive(e *sim.Engine, title string) error {
	p := tea.NewProgram(newModel(e, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
