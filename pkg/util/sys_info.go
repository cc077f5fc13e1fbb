package util

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// GetOSPrettyName returns a human readable OS name for the stats panel.
// Used as the fallback when gopsutil cannot probe the host, which happens
// in minimal containers.
// GetOSPrettyName 返回给状态面板展示的系统名称
// gopsutil 探测失败时作为回退使用，精简容器里常见
func GetOSPrettyName() string {
	switch runtime.GOOS {
	case "linux":
		return getLinuxPrettyName()
	case "windows":
		return getWindowsVersion()
	case "darwin":
		return getMacOSVersion()
	default:
		return runtime.GOOS
	}
}

// getLinuxPrettyName reads /etc/os-release, preferring PRETTY_NAME and
// falling back to NAME for stripped-down images.
// getLinuxPrettyName 读取 /etc/os-release，优先 PRETTY_NAME，
// 精简镜像缺失时回退到 NAME
func getLinuxPrettyName() string {
	file, err := os.Open("/etc/os-release")
	if err != nil {
		return "Linux"
	}
	defer file.Close()

	name := ""
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(v, `"'`)
		}
		if v, ok := strings.CutPrefix(line, "NAME="); ok && name == "" {
			name = strings.Trim(v, `"'`)
		}
	}
	if name != "" {
		return name
	}
	return "Linux"
}

// getWindowsVersion executes 'cmd /c ver' to get Windows version
// getWindowsVersion 执行 'cmd /c ver' 获取 Windows 版本
func getWindowsVersion() string {
	cmd := exec.Command("cmd", "/c", "ver")
	out, err := cmd.Output()
	if err != nil {
		return "Windows"
	}
	return strings.TrimSpace(string(out))
}

// getMacOSVersion executes 'sw_vers -productVersion' to get macOS version
// getMacOSVersion 执行 'sw_vers -productVersion' 获取 macOS 版本
func getMacOSVersion() string {
	cmd := exec.Command("sw_vers", "-productVersion")
	out, err := cmd.Output()
	if err != nil {
		return "macOS"
	}
	return "macOS " + strings.TrimSpace(string(out))
}
