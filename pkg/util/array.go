package util

// InSlice reports whether item appears in slice. The allowed-clients check
// uses this on every auth, lists there stay short enough for a linear scan.
// InSlice 判断元素是否在切片中，客户端白名单校验走这里，
// 列表很短，线性扫描即可
func InSlice[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
