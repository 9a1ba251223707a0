package main

import (
	"log"
	"os"
	"strings"

	"codehelper/cmd"
	"codehelper/pkg/apperr"
	"codehelper/pkg/logging"

	"golang.org/x/term"
)

func main() {
	err := cmd.Execute()
	code := apperr.ExitCode(err)
	if cmd.IsUsageError(err) {
		code = apperr.ExitUsage
	}
	if err != nil && !cmd.IsReported(err) {
		log.Printf("codehelper: %v", err)
	}

	// Syncing a console stderr fails with EINVAL on some platforms.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logging.Logger.Sync(); syncErr != nil {
			if !strings.Contains(strings.ToLower(syncErr.Error()), "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}
	os.Exit(code)
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
