package detector

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// commLen is the kernel's limit on a task's comm name, excluding the NUL.
const commLen = 15

// processNames lists the comm names of every process visible under procRoot.
// A missing procfs yields no processes; processes that exit while being read
// are skipped.
func processNames(procRoot string) ([]string, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(procRoot, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if name := strings.TrimSpace(string(data)); name != "" {
			names = append(names, name)
		}
	}

	return names, nil
}

// matchSignature returns the first signature matching one of the running
// process names. Signatures longer than a comm name match on their prefix.
func matchSignature(names, signatures []string) (string, bool) {
	if len(signatures) == 0 {
		return "", false
	}

	running := make(map[string]struct{}, len(names))
	for _, name := range names {
		running[strings.ToLower(name)] = struct{}{}
	}

	for _, sig := range signatures {
		key := strings.ToLower(strings.TrimSpace(sig))
		if key == "" {
			continue
		}
		if len(key) > commLen {
			key = key[:commLen]
		}
		if _, ok := running[key]; ok {
			return sig, true
		}
	}

	return "", false
}

// tracerPID reads the TracerPid of the current process. Zero means no tracer
// is attached or procfs is unavailable.
func tracerPID(procRoot string) (int, error) {
	f, err := os.Open(filepath.Join(procRoot, "self", "status"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		return strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "TracerPid:")))
	}

	return 0, scanner.Err()
}
