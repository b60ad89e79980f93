package encoding

import (
	"errors"
	"os/exec"
	"syscall"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// startInProcessGroup places the child in a new process group so the whole
// encoder tree can be signalled at once.
func startInProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return killProcessTree(cmd.Process.Pid)
	}
}

// killProcessTree kills the process group led by pid, then any descendants
// that moved to another group.
func killProcessTree(pid int) error {
	descendants := collectDescendants(int32(pid))
	err := unix.Kill(-pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		err = nil
	}
	for _, child := range descendants {
		_ = child.Kill()
	}
	return err
}

func collectDescendants(pid int32) []*gopsutilprocess.Process {
	root, err := gopsutilprocess.NewProcess(pid)
	if err != nil {
		return nil
	}
	var out []*gopsutilprocess.Process
	queue := []*gopsutilprocess.Process{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := current.Children()
		if err != nil {
			continue
		}
		out = append(out, children...)
		queue = append(queue, children...)
	}
	return out
}
