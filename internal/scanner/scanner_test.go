package scanner_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kovancilartr/quizclip/internal/scanner"
	"github.com/kovancilartr/quizclip/pkg/logger"
)

func scannerTestLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[scanner-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	return log
}

var _ = Describe("Directory Scanner", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "quizclip-scanner-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	write := func(relPath string) {
		full := filepath.Join(dir, relPath)
		Expect(os.MkdirAll(filepath.Dir(full), 0755)).To(Succeed())
		Expect(os.WriteFile(full, []byte("%PDF-1.4"), 0644)).To(Succeed())
	}

	It("finds PDFs recursively with relative paths", func() {
		write("exam.pdf")
		write("archive/midterm.pdf")
		write("notes.txt")

		pdfs, err := scanner.New(scannerTestLogger()).FindPDFs(context.Background(), dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(pdfs).To(HaveLen(2))

		var rels []string
		for _, p := range pdfs {
			rels = append(rels, p.RelativePath)
		}
		Expect(rels).To(ConsistOf("exam.pdf", filepath.Join("archive", "midterm.pdf")))
	})

	It("matches the extension case-insensitively", func() {
		write("EXAM.PDF")

		pdfs, err := scanner.New(scannerTestLogger()).FindPDFs(context.Background(), dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(pdfs).To(HaveLen(1))
	})

	It("returns an empty list for a directory without PDFs", func() {
		write("notes.txt")

		pdfs, err := scanner.New(scannerTestLogger()).FindPDFs(context.Background(), dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(pdfs).To(BeEmpty())
	})

	It("stops when the context is cancelled", func() {
		write("exam.pdf")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := scanner.New(scannerTestLogger()).FindPDFs(ctx, dir)
		Expect(err).To(MatchError(context.Canceled))
	})
})
