package embervk

import "unsafe"

//safeString null terminates a string for handoff to the vulkan C ABI
func safeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}

//checkExisting filters the required names against the actually available names,
//returning the usable subset and the number of missing entries
func checkExisting(actual, required []string) (existing []string, missing int) {
	for j := range required {
		found := false
		for i := range actual {
			if actual[i] == required[j] {
				found = true
				break
			}
		}
		if found {
			existing = append(existing, required[j])
		} else {
			missing++
		}
	}
	return existing, missing
}

//sliceUint32 reinterprets SPIR-V byte data as the uint32 words vulkan expects
func sliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	if len(data) == 0 {
		return nil
	}
	return (*[m / 4]uint32)(unsafe.Pointer(&data[0]))[:len(data)/4]
}
