package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
)

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	// Simple ARM code: MOV R0, #42; SWI 0
	code := []byte{
		0x2A, 0x00, 0xA0, 0xE3,
		0x00, 0x00, 0x00, 0xEF,
	}

	Describe("Load", func() {
		Context("with a valid ARM ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				createARMELF(elfPath, 0x8004, []testSegment{
					{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 0x5},
				})
			})

			It("should load without error", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog).NotTo(BeNil())
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x8004)))
			})

			It("should load segment contents and permissions", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x8000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagRead).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				emptyPath := filepath.Join(tempDir, "empty.elf")
				Expect(os.WriteFile(emptyPath, []byte{}, 0644)).To(Succeed())

				_, err := loader.Load(emptyPath)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a non-ARM ELF", func() {
			It("should reject an x86 ELF", func() {
				elfPath := filepath.Join(tempDir, "x86.elf")
				createELF32(elfPath, 3, 0, nil)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not an ARM"))
			})
		})

		Context("with a 64-bit ELF", func() {
			It("should reject it", func() {
				elfPath := filepath.Join(tempDir, "elf64.elf")
				createMinimal64BitELF(elfPath)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})
		})
	})

	Describe("Multi-segment ELFs", func() {
		It("should load multiple PT_LOAD segments", func() {
			elfPath := filepath.Join(tempDir, "multi-segment.elf")
			dataData := []byte{0x01, 0x02, 0x03, 0x04}
			createARMELF(elfPath, 0x8000, []testSegment{
				{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 0x5},
				{vaddr: 0x10000, data: dataData, memSize: uint32(len(dataData)), flags: 0x6},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			Expect(prog.Segments[0].Data).To(Equal(code))
			Expect(prog.Segments[1].VirtAddr).To(Equal(uint32(0x10000)))
			Expect(prog.Segments[1].Data).To(Equal(dataData))
			Expect(prog.Segments[1].Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})
	})

	Describe("BSS segments", func() {
		It("should keep MemSize larger than the file data", func() {
			elfPath := filepath.Join(tempDir, "bss.elf")
			initialData := []byte{0x01, 0x02, 0x03, 0x04}
			createARMELF(elfPath, 0x8000, []testSegment{
				{vaddr: 0x9000, data: initialData, memSize: 1024, flags: 0x6},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			bss := prog.Segments[0]
			Expect(bss.Data).To(Equal(initialData))
			Expect(bss.MemSize).To(Equal(uint32(1024)))
			Expect(prog.Size()).To(Equal(uint64(1024)))
		})

		It("should handle segments with zero file size", func() {
			elfPath := filepath.Join(tempDir, "zero-filesz.elf")
			createARMELF(elfPath, 0x8000, []testSegment{
				{vaddr: 0xA000, memSize: 4096, flags: 0x6},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(HaveLen(0))
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(4096)))
		})
	})

	Describe("ELFs with no loadable segments", func() {
		It("should return an empty segment list", func() {
			elfPath := filepath.Join(tempDir, "no-load.elf")
			createARMELF(elfPath, 0x8000, nil)

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint32(0x8000)))
		})
	})

	Describe("LoadInto", func() {
		It("should copy segments and zero fill BSS", func() {
			elfPath := filepath.Join(tempDir, "run.elf")
			createARMELF(elfPath, 0x8000, []testSegment{
				{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 0x5},
				{vaddr: 0x9000, data: []byte{0xAA}, memSize: 8, flags: 0x6},
			})
			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			memory := emu.NewMemory(0x10000)
			Expect(memory.WriteWord(0x9004, 0xFFFFFFFF)).To(Succeed())

			Expect(prog.LoadInto(memory)).To(Succeed())

			Expect(memory.ReadWord(0x8000)).To(Equal(uint32(0xE3A0002A)))
			Expect(memory.ReadWord(0x9000)).To(Equal(uint32(0xAA)))
			Expect(memory.ReadWord(0x9004)).To(Equal(uint32(0)))
		})

		It("should run the loaded program", func() {
			elfPath := filepath.Join(tempDir, "run.elf")
			createARMELF(elfPath, 0x8000, []testSegment{
				{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 0x5},
			})
			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			memory := emu.NewMemory(0x10000)
			Expect(prog.LoadInto(memory)).To(Succeed())
			e := emu.NewEmulator(emu.WithMemory(memory))
			e.RegFile().SetPC(prog.EntryPoint)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(42)))
		})

		It("should fail when a segment does not fit", func() {
			prog := &loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0xFF00, Data: make([]byte, 0x200), MemSize: 0x200},
			}}

			err := prog.LoadInto(emu.NewMemory(0x10000))
			Expect(err).To(MatchError(emu.ErrOutOfBounds))
		})
	})
})

type testSegment struct {
	vaddr   uint32
	data    []byte
	memSize uint32
	flags   uint32
}

// createARMELF creates a little-endian ELF32 ARM executable.
func createARMELF(path string, entryPoint uint32, segs []testSegment) {
	createELF32(path, 40, entryPoint, segs)
}

// createELF32 creates a little-endian ELF32 executable for the given machine
// with one PT_LOAD program header per segment.
func createELF32(path string, machine uint16, entryPoint uint32, segs []testSegment) {
	const (
		ehSize = 52
		phSize = 32
	)

	// ELF Header (52 bytes)
	elfHeader := make([]byte, ehSize)
	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 1                                                   // 32-bit
	elfHeader[5] = 1                                                   // little endian
	elfHeader[6] = 1                                                   // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)                 // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], machine)           // machine
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)                 // version
	binary.LittleEndian.PutUint32(elfHeader[24:28], entryPoint)        // entry
	binary.LittleEndian.PutUint32(elfHeader[28:32], ehSize)            // phoff
	binary.LittleEndian.PutUint16(elfHeader[40:42], ehSize)            // ehsize
	binary.LittleEndian.PutUint16(elfHeader[42:44], phSize)            // phentsize
	binary.LittleEndian.PutUint16(elfHeader[44:46], uint16(len(segs))) // phnum
	binary.LittleEndian.PutUint16(elfHeader[46:48], 40)                // shentsize

	// Program headers, followed by the segment data
	offset := uint32(ehSize + phSize*len(segs))
	var progHeaders, payload []byte
	for _, seg := range segs {
		ph := make([]byte, phSize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(seg.data)))
		binary.LittleEndian.PutUint32(ph[20:24], seg.memSize)
		binary.LittleEndian.PutUint32(ph[24:28], seg.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 0x1000)

		progHeaders = append(progHeaders, ph...)
		payload = append(payload, seg.data...)
		offset += uint32(len(seg.data))
	}

	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeaders)
	_, _ = file.Write(payload)
}

// createMinimal64BitELF creates a minimal ELF64 AArch64 header to test
// rejection.
func createMinimal64BitELF(path string) {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                     // 64-bit
	elfHeader[5] = 1                                     // little endian
	elfHeader[6] = 1                                     // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)   // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], 183) // AArch64
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)   // version
	binary.LittleEndian.PutUint64(elfHeader[32:40], 64)  // phoff
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64)  // ehsize
	binary.LittleEndian.PutUint16(elfHeader[54:56], 56)  // phentsize

	Expect(os.WriteFile(path, elfHeader, 0644)).To(Succeed())
}
