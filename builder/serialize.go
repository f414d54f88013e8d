package builder

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

var useGzip = true

func UseGzip(use bool) {
	useGzip = use
}

func Load(filename string) (*Snapshot, error) {

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return Decode(content)
}

// Decode parses a snapshot from the file content written by Save.
func Decode(content []byte) (*Snapshot, error) {
	if useGzip {
		var err error
		content, err = Decompress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress: %w", err)
		}
	}

	buf := bytes.NewBuffer(content)
	if _, err := readHeader(buf); err != nil {
		return nil, err
	}

	snapshot := &Snapshot{}

	if err := binary.Read(buf, binary.LittleEndian, &snapshot.Tick); err != nil {
		return nil, fmt.Errorf("failed to read tick: %w", err)
	}

	if err := binary.Read(buf, binary.LittleEndian, &snapshot.Kinds); err != nil {
		return nil, fmt.Errorf("failed to read kind count: %w", err)
	}

	var ruleCount uint32
	if err := binary.Read(buf, binary.LittleEndian, &ruleCount); err != nil {
		return nil, fmt.Errorf("failed to read rule count: %w", err)
	}
	if int(ruleCount)*8 > buf.Len() {
		return nil, fmt.Errorf("failed to read rules: count %d exceeds data", ruleCount)
	}

	snapshot.Rules = make([]Rule, ruleCount)
	if err := binary.Read(buf, binary.LittleEndian, snapshot.Rules); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	var bodyCount uint32
	if err := binary.Read(buf, binary.LittleEndian, &bodyCount); err != nil {
		return nil, fmt.Errorf("failed to read body count: %w", err)
	}
	if int(bodyCount)*binary.Size(Body{}) > buf.Len() {
		return nil, fmt.Errorf("failed to read bodies: count %d exceeds data", bodyCount)
	}

	snapshot.Bodies = make([]Body, bodyCount)
	if err := binary.Read(buf, binary.LittleEndian, snapshot.Bodies); err != nil {
		return nil, fmt.Errorf("failed to read bodies: %w", err)
	}

	return snapshot, nil
}

func Save(snapshot *Snapshot, filename string) error {
	content, err := Encode(snapshot)
	if err != nil {
		return err
	}

	err = os.WriteFile(filename, content, 0644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Encode serializes a snapshot into the file content Save writes.
func Encode(snapshot *Snapshot) ([]byte, error) {
	// 验证数据完整性
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	buf := bytes.NewBuffer(nil)
	// 写入文件头
	header := FileHeader{
		Magic:   SNAPSHOT_FILE_MAGIC,
		Version: SNAPSHOT_FILE_VERSION,
	}

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, snapshot.Tick); err != nil {
		return nil, fmt.Errorf("failed to write tick: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, snapshot.Kinds); err != nil {
		return nil, fmt.Errorf("failed to write kind count: %w", err)
	}

	// write rules
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(snapshot.Rules))); err != nil {
		return nil, fmt.Errorf("failed to write rule count: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, snapshot.Rules); err != nil {
		return nil, fmt.Errorf("failed to write rules: %w", err)
	}

	// write bodies
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(snapshot.Bodies))); err != nil {
		return nil, fmt.Errorf("failed to write body count: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, snapshot.Bodies); err != nil {
		return nil, fmt.Errorf("failed to write bodies: %w", err)
	}

	content := buf.Bytes()

	if useGzip {
		var err error
		content, err = Compress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to compress: %w", err)
		}
	}

	return content, nil
}

func readHeader(r io.Reader) (FileHeader, error) {
	// 读取文件头
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return header, fmt.Errorf("failed to read header: %w", err)
	}

	// 验证文件格式
	if header.Magic != SNAPSHOT_FILE_MAGIC {
		return header, ErrInvalidMagic
	}

	if header.Version != SNAPSHOT_FILE_VERSION {
		return header, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}

	return header, nil
}

func Decompress(content []byte) ([]byte, error) {

	buf := bytes.NewBuffer(content)
	gzipReader, err := gzip.NewReader(buf)
	if err != nil {
		return nil, err
	}
	defer gzipReader.Close()

	return io.ReadAll(gzipReader)
}

func Compress(content []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	gzipWriter := gzip.NewWriter(buf)
	if _, err := gzipWriter.Write(content); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetFileInfo 获取快照文件信息
func GetFileInfo(filename string) (*SnapshotFileInfo, error) {
	// 获取文件大小
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	snapshot, err := Load(filename)
	if err != nil {
		return nil, err
	}

	return &SnapshotFileInfo{
		Filename:  filename,
		FileSize:  fileInfo.Size(),
		Version:   SNAPSHOT_FILE_VERSION,
		Tick:      snapshot.Tick,
		Kinds:     snapshot.Kinds,
		RuleCount: len(snapshot.Rules),
		BodyCount: snapshot.GetBodyCount(),
		DataSize:  snapshot.GetDataSize(),
		ModTime:   fileInfo.ModTime(),
	}, nil
}

// SnapshotFileInfo 快照文件信息
type SnapshotFileInfo struct {
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size"`
	Version   uint32    `json:"version"`
	Tick      uint64    `json:"tick"`
	Kinds     uint32    `json:"kinds"`
	RuleCount int       `json:"rule_count"`
	BodyCount int       `json:"body_count"`
	DataSize  int       `json:"data_size"`
	ModTime   time.Time `json:"mod_time"`
}

// ValidateSnapshotFile 验证快照文件的完整性
func ValidateSnapshotFile(filename string) error {
	snapshot, err := Load(filename)
	if err != nil {
		return err
	}

	return snapshot.Validate()
}
