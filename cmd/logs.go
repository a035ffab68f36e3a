package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/quickspell/core/pkg/paths"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display quickspell log output",
		Long: `Prints the current day's log file. With --follow the command keeps
streaming new lines as the daemon or palette writes them.`,
		Example: `  # Print today's logs
  quickspell logs

  # Follow log output
  quickspell logs -f`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", 0, "Only show the last N lines")
	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	tailN, _ := cmd.Flags().GetInt("tail")

	path, err := currentLogFile()
	if err != nil {
		return err
	}

	var location *tail.SeekInfo
	if tailN > 0 {
		if offset, err := offsetForLastLines(path, tailN); err == nil {
			location = &tail.SeekInfo{Offset: offset, Whence: 0}
		}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   follow,
		ReOpen:   follow,
		Location: location,
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail log file: %w", err)
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			return line.Err
		}
		fmt.Println(line.Text)
	}
	return nil
}

// currentLogFile returns today's log file, falling back to the newest one
// present when today's does not exist yet.
func currentLogFile() (string, error) {
	dataDir := paths.DataDir()
	today := filepath.Join(dataDir, fmt.Sprintf("quickspell-%s.log", time.Now().Format("2006-01-02")))
	if _, err := os.Stat(today); err == nil {
		return today, nil
	}

	matches, err := filepath.Glob(filepath.Join(dataDir, "quickspell-*.log"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no log files found in %s", dataDir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// offsetForLastLines finds the byte offset of the Nth-from-last line.
func offsetForLastLines(path string, n int) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	lines := 0
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == '\n' {
			lines++
			if lines > n {
				return int64(i + 1), nil
			}
		}
	}
	return 0, nil
}
