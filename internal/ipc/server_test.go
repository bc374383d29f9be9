package ipc

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, conn net.Conn) string {
	t.Helper()
	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestServer(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "lyrics.sock")
	mirrorPath := filepath.Join(dir, "lyrics")

	s := NewServer(socketPath, mirrorPath)
	require.NoError(t, s.Start())
	defer s.Close()

	s.Broadcast("故事的小黄花")

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "故事的小黄花", readMessage(t, conn), "新客户端应收到最近一次歌词")
	assert.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.Broadcast("从出生那年就飘着")
	assert.Equal(t, "从出生那年就飘着", readMessage(t, conn))

	content, err := os.ReadFile(mirrorPath)
	require.NoError(t, err)
	assert.Equal(t, "从出生那年就飘着\n", string(content))

	t.Run("SecondInstance", func(t *testing.T) {
		other := NewServer(socketPath, "")
		assert.ErrorIs(t, other.Start(), ErrAlreadyRunning)

		pid, err := os.ReadFile(socketPath + ".lock")
		require.NoError(t, err)
		assert.NotEmpty(t, pid, "第二个实例不应清空锁文件")
	})

	t.Run("Disconnect", func(t *testing.T) {
		conn.Close()
		assert.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	})
}

func TestStaleLock(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "lyrics.sock")
	lockPath := socketPath + ".lock"

	// 不存在的进程号和无法解析的内容都会被清理
	for _, content := range []string{"2147483646\n", "not-a-pid\n", ""} {
		require.NoError(t, os.WriteFile(lockPath, []byte(content), 0644))

		s := NewServer(socketPath, "")
		require.NoError(t, s.Start(), "content %q", content)

		pid, err := readLockPID(lockPath)
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), pid)

		s.Close()
		assert.NoFileExists(t, lockPath)
	}
}
