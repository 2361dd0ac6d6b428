package nestile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/nestile/ines"
)

const scanWorkers = 10

// Ignore anything bigger than the largest image the header can describe in
// plain units
const maxImageSize = ines.HeaderSize + ines.TrainerSize + 0xfff*ines.PRGUnit + 0xfff*ines.CHRUnit

var errNoCatalog = errors.New("nestile: no catalog")

func (n *Nestile) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			if strings.ToLower(filepath.Ext(file)) != ".nes" || info.Size() > maxImageSize {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// scanFile adds file to the catalog. Files that aren't valid images are
// logged and skipped.
func (n *Nestile) scanFile(file string) error {
	image, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	h, err := ines.ParseHeader(image)
	if err != nil {
		n.logger.Printf("Skipping \"%s\": %s\n", file, err)
		return nil
	}

	info, err := n.parser.Inspect(image)
	if err != nil {
		n.logger.Printf("Skipping \"%s\": %s\n", file, err)
		return nil
	}

	crc := romCRC(image, h)
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	banks, err := n.parser.ListBanks(image, h)
	switch {
	case errors.Is(err, ines.ErrNoGraphicsData):
		n.logger.Printf("\"%s\" uses CHR RAM, no banks stored\n", file)
	case err != nil:
		return err
	}

	if _, err := n.db.Add(name, crc, info, banks); err != nil {
		return fmt.Errorf("cataloging '%s': %w", file, err)
	}
	n.logger.Printf("Added \"%s\" with CRC \"%s\", %d banks\n", file, crc, len(banks))

	return nil
}

func (n *Nestile) fileWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := n.scanFile(file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree at path and adds every cartridge image to
// the catalog
func (n *Nestile) Scan(path string) error {
	if n.db == nil {
		return errNoCatalog
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := n.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := n.fileWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
