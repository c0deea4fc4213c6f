package common

import "unsafe"

const smallsString = "00010203040506070809" +
	"10111213141516171819" +
	"20212223242526272829" +
	"30313233343536373839" +
	"40414243444546474849" +
	"50515253545556575859" +
	"60616263646566676869" +
	"70717273747576777879" +
	"80818283848586878889" +
	"90919293949596979899"

// UnsafeString views b as a string without copying. The caller must not
// modify b while the string is in use.
func UnsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// DecimalLen returns the number of base 10 digits needed for u.
func DecimalLen(u uint64) int {
	n := 1
	for u >= 100 {
		u /= 100
		n += 2
	}
	if u >= 10 {
		n++
	}
	return n
}

// PutDecimal writes the digits of u into dst, right aligned. len(dst) must
// be DecimalLen(u); extra room on the left is left untouched.
func PutDecimal(dst []byte, u uint64) {
	i := len(dst)
	for u >= 100 {
		is := u % 100 * 2
		u /= 100
		i -= 2
		dst[i+1] = smallsString[is+1]
		dst[i] = smallsString[is]
	}
	// u < 100
	is := u * 2
	i--
	dst[i] = smallsString[is+1]
	if u >= 10 {
		i--
		dst[i] = smallsString[is]
	}
}

// AlignUp rounds off up to the next multiple of align (a power of two).
func AlignUp(off, align uintptr) uintptr {
	return (off + align - 1) &^ (align - 1)
}
