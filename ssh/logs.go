package ssh

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

const contentsSize = 3000

type latestLogMsg []byte

type logFileMsg *os.File

type errorMsg struct {
	err error
}

// logView tails the claimer log file and loads older content when scrolled to the top.
type logView struct {
	fileName  string
	file      *os.File
	fileAtTop bool
	contents  []byte
	ready     bool
	viewport  viewport.Model
	err       error
}

func newLogView(fileName string) logView {
	return logView{fileName: fileName}
}

func (v logView) init() tea.Cmd {
	if v.fileName == "" {
		return nil
	}
	name := v.fileName
	return func() tea.Msg {
		file, err := os.Open(name)
		if err != nil {
			return errorMsg{err}
		}
		return logFileMsg(file)
	}
}

func (v logView) close() {
	if v.file != nil {
		_ = v.file.Close()
	}
}

func (v logView) update(msg tea.Msg) (logView, tea.Cmd) {
	switch msg := msg.(type) {
	case logFileMsg:
		v.file = msg
		return v, readLatestLog(v.file)
	case latestLogMsg:
		v.contents = msg
		v.fileAtTop = false
		v.viewport.SetContent(string(v.contents))
		v.viewport.GotoBottom()
		return v, nil
	case errorMsg:
		log.Warn().Err(msg.err).Str("file", v.fileName).Msg("ssh log view failed")
		v.err = msg.err
		return v, nil
	case tea.WindowSizeMsg:
		if !v.ready {
			v.viewport = viewport.New(msg.Width, msg.Height-1)
			v.viewport.SetContent(string(v.contents))
			v.ready = true
		} else {
			v.viewport.Width = msg.Width
			v.viewport.Height = msg.Height - 1
		}
		return v, nil
	case tea.KeyMsg:
		if msg.String() == "r" && v.file != nil {
			return v, readLatestLog(v.file)
		}
		if err := v.loadOlder(); err != nil {
			v.err = err
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// loadOlder prepends the previous chunk of the file once the viewport reaches the top.
func (v *logView) loadOlder() error {
	if v.file == nil || !v.viewport.AtTop() || v.fileAtTop {
		return nil
	}

	current, err := v.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	start := current - int64(len(v.contents))
	if start <= 0 {
		v.fileAtTop = true
		return nil
	}

	offset := start - contentsSize
	if offset < 0 {
		offset = 0
	}

	buf := make([]byte, start-offset)
	n, err := v.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return err
	}
	if int64(n) != start-offset {
		return fmt.Errorf("log buffer is not loaded correctly: read %d of %d bytes", n, start-offset)
	}

	oldLineCount := v.viewport.TotalLineCount()
	v.contents = append(buf, v.contents...)
	v.viewport.SetContent(string(v.contents))
	v.viewport.SetYOffset(v.viewport.TotalLineCount() - oldLineCount)
	return nil
}

func (v logView) view() string {
	switch {
	case v.fileName == "":
		return "No log file configured."
	case v.err != nil:
		return fmt.Sprintf("Cannot read %s: %s", v.fileName, v.err)
	case !v.ready:
		return "Loading logs..."
	}
	return v.viewport.View()
}

// readLatestLog reads the last chunk of the file and leaves the offset at its end.
func readLatestLog(logFile *os.File) tea.Cmd {
	return func() tea.Msg {
		fileInfo, err := logFile.Stat()
		if err != nil {
			return errorMsg{err}
		}

		offset := fileInfo.Size() - contentsSize
		if offset < 0 {
			offset = 0
		}

		if _, err := logFile.Seek(offset, io.SeekStart); err != nil {
			return errorMsg{err}
		}

		contents, err := io.ReadAll(logFile)
		if err != nil {
			return errorMsg{err}
		}

		return latestLogMsg(contents)
	}
}
