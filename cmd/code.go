package cmd

import (
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/gemini-code-gateway/internal/process"
)

var codeCmd = &cobra.Command{
	Use:   "code [args...]",
	Short: "Run the Gemini CLI through the gateway",
	Long:  `Start the gateway service if needed and execute the gemini CLI with the gateway as its API endpoint.`,
	Args:  cobra.ArbitraryArgs,
	RunE:  runCode,
}

func runCode(cmd *cobra.Command, args []string) error {
	procMgr := process.NewManager(baseDir)
	cfg := cfgMgr.Get()

	serviceStartedByUs, err := procMgr.StartServiceIfNeeded()
	if err != nil {
		return err
	}

	env := os.Environ()

	// The CLI would otherwise talk to the public endpoint directly.
	env = filterEnv(env, "GOOGLE_GEMINI_BASE_URL")
	env = append(env, "GOOGLE_GEMINI_BASE_URL=http://"+cfg.Host+":"+strconv.Itoa(cfg.Port))

	procMgr.IncrementRef()
	defer func() {
		procMgr.DecrementRef()
		if serviceStartedByUs && procMgr.ReadRef() == 0 {
			color.Yellow("No more active sessions, stopping auto-started service...")
			procMgr.Stop()
		}
	}()

	geminiCmd := exec.Command("gemini", args...)
	geminiCmd.Env = env
	geminiCmd.Stdin = os.Stdin
	geminiCmd.Stdout = os.Stdout
	geminiCmd.Stderr = os.Stderr

	return geminiCmd.Run()
}

func filterEnv(env []string, key string) []string {
	var filtered []string
	prefix := key + "="
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
