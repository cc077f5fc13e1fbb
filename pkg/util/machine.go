package util

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineID      string
	machineIDMutex sync.Mutex
)

// GetMachineID returns a stable identifier for the host. Token signing
// keys are salted with it, so a leaked config cannot mint valid session
// tokens on another machine.
// Falls back to the motherboard serial when the machineid library fails,
// returns empty when neither source is available.
// GetMachineID 返回主机的稳定标识，签发密钥用它加盐，
// 配置泄露后也无法在其他机器上伪造会话凭证
// machineid 库失败时回退读取主板序列号，两者都拿不到返回空串
func GetMachineID() string {
	machineIDMutex.Lock()
	defer machineIDMutex.Unlock()

	if machineID != "" {
		return machineID
	}

	id, err := machineid.ID()
	if err == nil && id != "" {
		machineID = id
		return machineID
	}

	id, err = getMotherboardID()
	if err == nil && id != "" {
		machineID = id
		return machineID
	}

	return ""
}

func getMotherboardID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		content, err := os.ReadFile("/sys/class/dmi/id/board_serial")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(content)), nil
	case "windows":
		out, err := exec.Command("wmic", "baseboard", "get", "serialnumber").Output()
		if err != nil {
			return "", err
		}
		return parseSerialNumber(string(out)), nil
	case "darwin":
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(out), "\n") {
			if !strings.Contains(line, "IOPlatformSerialNumber") {
				continue
			}
			if _, v, ok := strings.Cut(line, "="); ok {
				return strings.Trim(strings.TrimSpace(v), `"`), nil
			}
		}
		return "", errors.New("serial number not found")
	default:
		return "", errors.New("unsupported os")
	}
}

func parseSerialNumber(output string) string {
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "SerialNumber") {
			continue
		}
		return line
	}
	return ""
}
