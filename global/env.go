package global

import (
	"github.com/haierkeys/draft-sync-service/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT          string
	Name          string = "Draft Sync Service"
	WebClientName string = "Web"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
