//go:build !unix

package track

import "errors"

func closeFD(fd int) error {
	return errors.New("raw descriptor close is not supported on this platform")
}
