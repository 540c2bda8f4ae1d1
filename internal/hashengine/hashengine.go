// Package hashengine streams a file through CRC32/MD5/SHA-1 and,
// optionally, the header-skip logic a HeaderRule describes.
package hashengine

import (
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/klauspost/crc32"

	"romorganizer/internal/headerrule"
)

// chunkSize is the reference streaming chunk used throughout; it has
// no effect on the hash values produced, only on memory use.
const chunkSize = 16 * 1024

// Result is the outcome of hashing a single file.
type Result struct {
	Size  uint64
	CRC32 string
	MD5   string
	SHA1  string
}

// ErrIO wraps a read failure encountered while hashing.
var ErrIO = fmt.Errorf("hashengine: io error")

// Hash computes (size, crc32, md5, sha1) for the file at path. When
// rule is non-nil, the bytes covering every rule match plus the
// start offset are inspected first; if they all agree, hashing (and
// the reported size) skips the leading start_offset bytes, otherwise
// the whole file is hashed.
func Hash(path string, rule *headerrule.Rule) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if info.Size() == 0 {
		return Result{Size: 0, CRC32: "", MD5: "", SHA1: ""}, nil
	}

	crcHash := crc32.NewIEEE()
	md5Hash := md5.New()
	sha1Hash := sha1.New()
	hashes := []hash.Hash{crcHash, md5Hash, sha1Hash}

	skip := int64(0)
	matched := false
	if rule != nil {
		var prefix []byte
		var err error
		matched, prefix, err = evaluateRule(f, rule)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if matched {
			skip = rule.StartOffset
		} else {
			// No match: hash the whole file, starting with the prefix
			// bytes already buffered for rule evaluation, then fall
			// through and keep reading from the current position.
			writeAll(hashes, prefix)
		}
	}

	if rule == nil || matched {
		if _, err := f.Seek(skip, io.SeekStart); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			writeAll(hashes, buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
	}

	size := uint64(info.Size())
	if skip > 0 {
		size -= uint64(skip)
	}

	return Result{
		Size:  size,
		CRC32: fmt.Sprintf("%08X", crcHash.Sum32()),
		MD5:   fmt.Sprintf("%X", md5Hash.Sum(nil)),
		SHA1:  fmt.Sprintf("%X", sha1Hash.Sum(nil)),
	}, nil
}

func writeAll(hashes []hash.Hash, p []byte) {
	for _, h := range hashes {
		h.Write(p)
	}
}

// evaluateRule reads enough of f to check every (offset, expected)
// match plus start_offset, leaving f positioned right after the bytes
// it consumed. It returns whether the rule matched and, when it did
// not, the bytes it buffered (which the caller must still hash).
func evaluateRule(f *os.File, rule *headerrule.Rule) (matched bool, prefix []byte, err error) {
	need := rule.StartOffset
	for _, m := range rule.Matches {
		if end := m.Offset + int64(len(m.Expected)); end > need {
			need = end
		}
	}

	prefix = make([]byte, need)
	n, err := io.ReadFull(f, prefix)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false, nil, err
	}
	prefix = prefix[:n]

	for _, m := range rule.Matches {
		end := m.Offset + int64(len(m.Expected))
		if end > int64(len(prefix)) {
			return false, prefix, nil
		}
		if string(prefix[m.Offset:end]) != string(m.Expected) {
			return false, prefix, nil
		}
	}

	return true, prefix, nil
}
