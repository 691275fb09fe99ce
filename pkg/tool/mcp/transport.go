package mcp

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var ErrUnsupportedDescriptor = errors.New("server script must be a .js or .py file")

// Launcher returns the interpreter used to run the tool-host script at path.
func Launcher(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return "node", nil

	case ".py":
		if runtime.GOOS == "windows" {
			return "python", nil
		}

		return "python3", nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedDescriptor, path)
}

func createTransport(descriptor string) (mcp.Transport, error) {
	launcher, err := Launcher(descriptor)

	if err != nil {
		return nil, err
	}

	cmd := exec.Command(launcher, descriptor)
	cmd.Stderr = os.Stderr

	return &mcp.CommandTransport{
		Command: cmd,
	}, nil
}
