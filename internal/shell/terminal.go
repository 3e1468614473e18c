package shell

import (
	"errors"
	"fmt"
	"os"

	"github.com/peterh/liner"
)

// Terminal is the process-wide line reader. It owns stdin for the lifetime of
// the shell and must be closed to restore the terminal mode.
type Terminal struct {
	*liner.State
	historyFile string
}

// OpenTerminal puts stdin under liner's control and loads history from
// historyFile when it is set and exists.
func OpenTerminal(historyFile string) (*Terminal, error) {
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)

	t := &Terminal{State: st, historyFile: historyFile}
	if historyFile == "" {
		return t, nil
	}
	f, err := os.Open(historyFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return t, nil
	case err != nil:
		st.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	if _, err := st.ReadHistory(f); err != nil {
		st.Close()
		return nil, fmt.Errorf("read history: %w", err)
	}
	return t, nil
}

// Close saves history (if configured) and restores the terminal.
func (t *Terminal) Close() error {
	var histErr error
	if t.historyFile != "" {
		histErr = t.saveHistory()
	}
	return errors.Join(histErr, t.State.Close())
}

func (t *Terminal) saveHistory() error {
	f, err := os.Create(t.historyFile)
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	defer f.Close()
	if _, err := t.WriteHistory(f); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
