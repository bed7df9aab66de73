//go:build !linux

package host

func systemClockTicks() uint64 {
	return UserHZ
}
