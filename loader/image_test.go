package loader_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
)

var _ = Describe("Flat images", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	Describe("ParseHex", func() {
		It("should place one word per line at the base address", func() {
			prog, err := loader.ParseHex(strings.NewReader("e3a0002a\nef000000\n"), 0x400000)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x400000)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].VirtAddr).To(Equal(uint32(0x400000)))
			Expect(prog.Segments[0].Data).To(Equal([]byte{
				0x2A, 0x00, 0xA0, 0xE3,
				0x00, 0x00, 0x00, 0xEF,
			}))
		})

		It("should skip blank lines and comments and accept 0x prefixes", func() {
			src := `
# counting loop
0xE3A00001   // MOV R0, #1

0XEF000000
`
			prog, err := loader.ParseHex(strings.NewReader(src), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(8)))
		})

		It("should report the line of a bad word", func() {
			_, err := loader.ParseHex(strings.NewReader("e3a0002a\nnot-hex\n"), 0)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 2"))
		})

		It("should reject words wider than 32 bits", func() {
			_, err := loader.ParseHex(strings.NewReader("1ffffffff\n"), 0)

			Expect(err).To(HaveOccurred())
		})

		It("should return no segments for an empty image", func() {
			prog, err := loader.ParseHex(strings.NewReader(""), 0x100)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint32(0x100)))
		})
	})

	Describe("LoadBinary", func() {
		It("should read the raw image", func() {
			path := filepath.Join(tempDir, "prog.bin")
			Expect(os.WriteFile(path, []byte{1, 2, 3, 4, 5}, 0644)).To(Succeed())

			prog, err := loader.LoadBinary(path, 0x2000)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x2000)))
			Expect(prog.Segments[0].Data).To(Equal([]byte{1, 2, 3, 4, 5}))
		})

		It("should reject an image that wraps the address space", func() {
			path := filepath.Join(tempDir, "prog.bin")
			Expect(os.WriteFile(path, make([]byte, 8), 0644)).To(Succeed())

			_, err := loader.LoadBinary(path, 0xFFFFFFFC)

			Expect(err).To(HaveOccurred())
		})

		It("should fail for a missing file", func() {
			_, err := loader.LoadBinary(filepath.Join(tempDir, "missing.bin"), 0)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("LoadFile", func() {
		It("should choose the hex loader from the extension", func() {
			path := filepath.Join(tempDir, "prog.x")
			Expect(os.WriteFile(path, []byte("e3a0002a\nef000000\n"), 0644)).To(Succeed())

			prog, err := loader.LoadFile(path, loader.FormatAuto, 0x1000)
			Expect(err).NotTo(HaveOccurred())

			memory := emu.NewMemory(0x10000)
			Expect(prog.LoadInto(memory)).To(Succeed())
			e := emu.NewEmulator(emu.WithMemory(memory))
			e.RegFile().SetPC(prog.EntryPoint)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(42)))
		})

		It("should honour an explicit format", func() {
			path := filepath.Join(tempDir, "prog.dat")
			Expect(os.WriteFile(path, []byte{0x2A, 0x00, 0xA0, 0xE3}, 0644)).To(Succeed())

			prog, err := loader.LoadFile(path, loader.FormatBinary, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(HaveLen(4))
		})

		It("should treat unknown extensions as ELF", func() {
			path := filepath.Join(tempDir, "prog")
			Expect(os.WriteFile(path, []byte("plain text"), 0644)).To(Succeed())

			_, err := loader.LoadFile(path, loader.FormatAuto, 0)

			Expect(err).To(MatchError(ContainSubstring("ELF")))
		})
	})

	Describe("ParseFormat", func() {
		It("should accept known names case-insensitively", func() {
			Expect(loader.ParseFormat("HEX")).To(Equal(loader.FormatHex))
			Expect(loader.ParseFormat("")).To(Equal(loader.FormatAuto))
		})

		It("should reject unknown names", func() {
			_, err := loader.ParseFormat("srec")
			Expect(err).To(HaveOccurred())
		})
	})
})
