package ipc

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"lyrics-backend/pkg/fileutil"
)

var logger = log.With().Str("component", "ipc").Logger()

// Server 通过 unix socket 向 GUI 客户端推送当前歌词，同时把歌词写入 mirrorPath 供状态栏读取
type Server struct {
	socketPath string
	mirrorPath string
	listener   net.Listener
	lock       *pidLock

	// mu 同时保护 clients 和 current，保证新客户端不会漏掉注册期间的广播
	mu      sync.Mutex
	clients map[net.Conn]struct{}
	current string
}

// NewServer 创建服务，mirrorPath 为空时不写文件
func NewServer(socketPath, mirrorPath string) *Server {
	return &Server{
		socketPath: socketPath,
		mirrorPath: mirrorPath,
		clients:    make(map[net.Conn]struct{}),
	}
}

// Start 获取单实例锁并开始监听
func (s *Server) Start() error {
	lock, err := acquirePIDLock(s.socketPath + ".lock")
	if err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		lock.release()
		return err
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		lock.release()
		return err
	}

	s.lock = lock
	s.listener = listener
	logger.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")

	go s.serve()
	return nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to accept IPC connection")
			continue
		}
		go s.serveClient(conn)
	}
}

// serveClient 注册客户端并推送当前歌词，客户端不发送数据，读到 EOF 即视为断开
func (s *Server) serveClient(conn net.Conn) {
	if err := s.attach(conn); err != nil {
		logger.Error().Err(err).Msg("Failed to send initial lyrics")
	}
	logger.Info().Msg("GUI client connected")

	io.Copy(io.Discard, conn)

	s.detach(conn)
	logger.Info().Msg("GUI client disconnected")
}

func (s *Server) attach(conn net.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[conn] = struct{}{}
	if s.current == "" {
		return nil
	}
	_, err := io.WriteString(conn, s.current)
	return err
}

func (s *Server) detach(conn net.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// Broadcast 推送歌词给所有客户端，新连接的客户端会先收到最近一次的歌词
func (s *Server) Broadcast(lyrics string) {
	if lyrics != "" && s.mirrorPath != "" {
		if err := fileutil.WriteFileOverwrite(s.mirrorPath, []byte(lyrics+"\n"), 0644); err != nil {
			logger.Warn().Err(err).Str("path", s.mirrorPath).Msg("Failed to write lyrics mirror file")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = lyrics

	payload := []byte(lyrics)
	for conn := range s.clients {
		if _, err := conn.Write(payload); err != nil {
			logger.Error().Err(err).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Close 关闭监听和所有客户端连接，释放进程锁
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	s.lock.release()
	s.lock = nil
}

// ClientCount 当前连接的客户端数
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
