package ipc

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning 另一个后端实例持有进程锁
var ErrAlreadyRunning = errors.New("another lyrics server instance is already running")

// pidLock 基于 flock 的单实例锁，文件内容为持有者的进程号
type pidLock struct {
	path string
	file *os.File
}

// readLockPID 读取锁文件中的进程号
func readLockPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		return 0, errors.New("lock file is empty")
	}
	return strconv.Atoi(pidStr)
}

// processAlive kill(pid, 0) 不发送信号，只检查进程是否存在
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

// removeStaleLock 删除已退出进程留下的锁文件，持有者仍存活时保留
func removeStaleLock(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	pid, err := readLockPID(path)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("lock_file", path).Msg("Unreadable lock file, removing it")
	case !processAlive(pid):
		logger.Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
	default:
		logger.Info().Int("existing_pid", pid).Msg("Another process is still running")
		return nil
	}
	return os.Remove(path)
}

// acquirePIDLock 获取锁并写入当前进程号
func acquirePIDLock(path string) (*pidLock, error) {
	if err := removeStaleLock(path); err != nil {
		logger.Warn().Err(err).Msg("Failed to clean old lock file")
	}

	// 不能带 O_TRUNC，否则会在加锁前抹掉持有者的进程号
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	l := &pidLock{path: path, file: file}
	if err = file.Truncate(0); err == nil {
		_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
	}
	if err != nil {
		l.unlock()
		return nil, fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	logger.Info().Str("lock_file", path).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return l, nil
}

func (l *pidLock) unlock() {
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	l.file.Close()
}

// release 解锁并删除锁文件
func (l *pidLock) release() {
	if l == nil || l.file == nil {
		return
	}
	l.unlock()
	os.Remove(l.path)
	l.file = nil
	logger.Info().Str("lock_file", l.path).Msg("Released process lock")
}
