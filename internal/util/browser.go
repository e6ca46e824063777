package util

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// browserCommand 各平台打开链接的命令
func browserCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		// rundll32 在旧版 Windows 上比 cmd /c start 稳定
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenBrowser 用默认浏览器打开看板地址，失败时依次尝试常见浏览器
func OpenBrowser(url string) error {
	err := browserCommand(url).Start()
	if err == nil {
		return nil
	}

	var fallbacks []string
	switch runtime.GOOS {
	case "windows":
		fallbacks = []string{"explorer"}
	case "linux":
		fallbacks = []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
	}
	for _, browser := range fallbacks {
		if exec.Command(browser, url).Start() == nil {
			return nil
		}
	}
	return err
}

// FindAvailablePort 从 startPort 开始查找可监听的端口，最多尝试 attempts 个
func FindAvailablePort(host string, startPort, attempts int) (int, error) {
	for port := startPort; port < startPort+attempts; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in [%d, %d)", startPort, startPort+attempts)
}
