package lobby

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/pixellobby/arcade/internal/bundle"
)

// terminateGracePeriod bounds how long a terminated child is given to exit
// after SIGTERM before Lobby escalates to SIGKILL.
const terminateGracePeriod = 5 * time.Second

// spawnChild starts a game-server process for room: working directory is
// the bundle's version directory, argv is the manifest's server_cmd with
// --port/--token/--room-id appended.
func spawnChild(manifest *bundle.Manifest, versionDir string, port int, token, roomID string) (*exec.Cmd, error) {
	if len(manifest.ServerCmd) == 0 {
		return nil, fmt.Errorf("lobby: game manifest has empty server_cmd")
	}

	argv := append([]string{}, manifest.ServerCmd[1:]...)
	argv = append(argv, "--port", strconv.Itoa(port), "--token", token, "--room-id", roomID)

	cmd := exec.Command(manifest.ServerCmd[0], argv...)
	cmd.Dir = versionDir

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("lobby: starting game server: %w", err)
	}
	return cmd, nil
}

// superviseChild waits for cmd to exit on its own goroutine, closes
// waitDone, and invokes onExit exactly once.
func superviseChild(cmd *exec.Cmd, waitDone chan struct{}, onExit func(err error)) {
	go func() {
		err := cmd.Wait()
		close(waitDone)
		onExit(err)
	}()
}

// terminateChild sends SIGTERM and, if the process has not exited within
// terminateGracePeriod, escalates to SIGKILL. waitDone must be the same
// channel passed to superviseChild, so this does not race the supervising
// goroutine's own Wait() call.
func terminateChild(cmd *exec.Cmd, waitDone <-chan struct{}) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		cmd.Process.Signal(syscall.SIGKILL)
		return
	}

	select {
	case <-waitDone:
	case <-time.After(terminateGracePeriod):
		cmd.Process.Signal(syscall.SIGKILL)
	}
}
