package repair

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"snapcapsule/internal/repair/mocks"
	"snapcapsule/internal/transcoder"
)

var mp4Header = append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0, 0, 0, 0}, bytes.Repeat([]byte{0x42}, 64)...)

func newTestPlanner(t *testing.T, opts Options) (*Planner, *mocks.MockMediaTool) {
	t.Helper()
	ctrl := gomock.NewController(t)
	tool := mocks.NewMockMediaTool(ctrl)
	tool.EXPECT().Available().Return(nil).AnyTimes()
	return New(tool, opts), tool
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeOutput stands in for a successful transcode.
func writeOutput(content string) func(context.Context, string, string) error {
	return func(_ context.Context, _, out string) error {
		return os.WriteFile(out, []byte(content), 0o644)
	}
}

func assertNoScratch(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, ".repair-*"))
	if len(matches) != 0 {
		t.Errorf("scratch dirs left behind: %v", matches)
	}
}

func TestRunRepairVideoSavedAsJPEG(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2024-05-01_07-30-00.jpg")
	repaired := filepath.Join(dir, "2024-05-01_07-30-00.mp4")
	backup := filepath.Join(dir, BackupDirName, "2024-05-01_07-30-00.jpg")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).
		Return(transcoder.Streams{transcoder.StreamVideo, transcoder.StreamAudio}, nil)
	tool.EXPECT().ReencodeVideo(gomock.Any(), original, gomock.Any()).DoAndReturn(writeOutput("h264"))

	var progress []Progress
	tally, err := p.RunRepair(context.Background(), []string{dir}, func(pr Progress) {
		progress = append(progress, pr)
	})
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	if tally.Fixed != 1 || tally.Skipped != 0 || tally.Failed != 0 {
		t.Errorf("tally = %+v, want 1 fixed", tally)
	}
	if len(progress) != 1 || progress[0].Done != 1 || progress[0].Total != 1 {
		t.Errorf("progress = %+v, want one report of 1/1", progress)
	}
	if rec := progress[0].Record; rec.NewPath != repaired || rec.BackupPath != backup || rec.Action != ActionVideo {
		t.Errorf("record = %+v", rec)
	}

	info, err := os.Stat(repaired)
	if err != nil {
		t.Fatalf("repaired file missing: %v", err)
	}
	if want := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC); !info.ModTime().Equal(want) {
		t.Errorf("mtime = %v, want %v", info.ModTime().UTC(), want)
	}
	if exists(original) {
		t.Error("original still in place")
	}
	if !bytes.Equal(readFile(t, backup), mp4Header) {
		t.Error("backup bytes differ from original")
	}
	assertNoScratch(t, dir)

	// A second pass leaves the repaired file alone.
	tool.EXPECT().ProbeStreams(gomock.Any(), repaired).Return(transcoder.Streams{transcoder.StreamVideo}, nil)
	tally, err = p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil {
		t.Fatalf("second RunRepair() error = %v", err)
	}
	if tally.Skipped != 1 || tally.Fixed != 0 {
		t.Errorf("second tally = %+v, want 1 skipped", tally)
	}

	n, err := p.RunRevert(context.Background(), []string{dir}, nil)
	if err != nil || n != 1 {
		t.Fatalf("RunRevert() = %d, %v, want 1, nil", n, err)
	}
	if !bytes.Equal(readFile(t, original), mp4Header) {
		t.Error("reverted bytes differ from original")
	}
	if exists(repaired) {
		t.Error("repaired file still present after revert")
	}
	if exists(filepath.Join(dir, BackupDirName)) {
		t.Error("empty backup dir not removed")
	}

	n, err = p.RunRevert(context.Background(), []string{dir}, nil)
	if err != nil || n != 0 {
		t.Errorf("second RunRevert() = %d, %v, want 0, nil", n, err)
	}
}

func TestRunRepairTimestampInsideName(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "Snap_2024-05-01_07-30-00_saved.jpg")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).Return(transcoder.Streams{transcoder.StreamVideo}, nil)
	tool.EXPECT().ReencodeVideo(gomock.Any(), original, gomock.Any()).DoAndReturn(writeOutput("h264"))

	if _, err := p.RunRepair(context.Background(), []string{dir}, nil); err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "Snap_2024-05-01_07-30-00_saved.mp4"))
	if err != nil {
		t.Fatalf("repaired file missing: %v", err)
	}
	if want := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC); !info.ModTime().Equal(want) {
		t.Errorf("mtime = %v, want %v", info.ModTime().UTC(), want)
	}
}

func TestRunRepairAudioOnly(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_voice.mp4")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).Return(transcoder.Streams{transcoder.StreamAudio}, nil)
	tool.EXPECT().ExtractAudio(gomock.Any(), original, gomock.Any()).DoAndReturn(writeOutput("mp3"))

	tally, err := p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil || tally.Fixed != 1 {
		t.Fatalf("RunRepair() = %+v, %v, want 1 fixed", tally, err)
	}
	if !exists(filepath.Join(dir, "2023-01-02_voice.mp3")) {
		t.Error("mp3 not created")
	}
	if !exists(filepath.Join(dir, BackupDirName, "2023-01-02_voice.mp4")) {
		t.Error("original not backed up")
	}
}

func TestRunRepairCorruptJPEG(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_pic.jpg")
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 0xFF, 0xD9, 4, 5, 0xFF, 0xD9}
	data := append(append([]byte("garbage-prefix--"), payload...), []byte("trailer")...)
	writeFile(t, original, data)

	p, _ := newTestPlanner(t, Options{})
	tally, err := p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil || tally.Fixed != 1 {
		t.Fatalf("RunRepair() = %+v, %v, want 1 fixed", tally, err)
	}

	got := readFile(t, original)
	if !bytes.Equal(got, payload) {
		t.Errorf("extracted = % x, want % x", got, payload)
	}
	if !bytes.HasPrefix(got, []byte{0xFF, 0xD8, 0xFF}) || !bytes.HasSuffix(got, []byte{0xFF, 0xD9}) {
		t.Error("extracted file lacks SOI/EOI markers")
	}
	if !bytes.Equal(readFile(t, filepath.Join(dir, BackupDirName, "2023-01-02_pic.jpg")), data) {
		t.Error("backup bytes differ from original")
	}
}

func TestRunRepairExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_junk.jpg")
	writeFile(t, original, []byte("not an image at all"))

	p, _ := newTestPlanner(t, Options{})
	var rec Record
	tally, err := p.RunRepair(context.Background(), []string{dir}, func(pr Progress) { rec = pr.Record })
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	if tally.Failed != 1 || !errors.Is(rec.Err, ErrExtractionFailure) {
		t.Errorf("tally = %+v, err = %v, want extraction failure", tally, rec.Err)
	}
	if !bytes.Equal(readFile(t, original), []byte("not an image at all")) {
		t.Error("original modified")
	}
	if exists(filepath.Join(dir, BackupDirName)) {
		t.Error("backup dir created for a failed repair")
	}
	assertNoScratch(t, dir)
}

func TestRunRepairFailureDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "2023-01-01_a.jpg")
	second := filepath.Join(dir, "2023-01-02_b.jpg")
	writeFile(t, first, mp4Header)
	writeFile(t, second, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	video := transcoder.Streams{transcoder.StreamVideo}
	tool.EXPECT().ProbeStreams(gomock.Any(), first).Return(video, nil)
	tool.EXPECT().ProbeStreams(gomock.Any(), second).Return(video, nil)
	tool.EXPECT().ReencodeVideo(gomock.Any(), first, gomock.Any()).
		Return(&transcoder.ToolError{Op: "reencode_video", Path: first, Kind: transcoder.ErrTranscodeFailed})
	tool.EXPECT().ReencodeVideo(gomock.Any(), second, gomock.Any()).DoAndReturn(writeOutput("ok"))

	tally, err := p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	if tally.Fixed != 1 || tally.Failed != 1 {
		t.Errorf("tally = %+v, want 1 fixed, 1 failed", tally)
	}
	if !reflect.DeepEqual(tally.FailedPaths, []string{first}) {
		t.Errorf("FailedPaths = %v, want [%s]", tally.FailedPaths, first)
	}
	if !exists(first) {
		t.Error("failed file was moved")
	}
	if exists(filepath.Join(dir, "2023-01-01_a.mp4")) {
		t.Error("output of a failed transcode was kept")
	}
	assertNoScratch(t, dir)

	// Retry just the failed subset.
	tool.EXPECT().ProbeStreams(gomock.Any(), first).Return(video, nil)
	tool.EXPECT().ReencodeVideo(gomock.Any(), first, gomock.Any()).DoAndReturn(writeOutput("ok"))
	tally, err = p.RepairFiles(context.Background(), tally.FailedPaths, nil)
	if err != nil || tally.Fixed != 1 {
		t.Errorf("RepairFiles() = %+v, %v, want 1 fixed", tally, err)
	}
}

func TestRunRepairProbeFailureForcesVideo(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_x.jpg")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).
		Return(nil, &transcoder.ToolError{Op: "probe", Path: original, Kind: transcoder.ErrProbeFailed})
	tool.EXPECT().ReencodeVideo(gomock.Any(), original, gomock.Any()).DoAndReturn(writeOutput("ok"))

	var rec Record
	tally, err := p.RunRepair(context.Background(), []string{dir}, func(pr Progress) { rec = pr.Record })
	if err != nil || tally.Fixed != 1 {
		t.Fatalf("RunRepair() = %+v, %v, want 1 fixed", tally, err)
	}
	if rec.Detected != "unknown" || rec.Action != ActionVideo {
		t.Errorf("record = %+v, want forced video repair", rec)
	}
}

func TestRunRepairToolMissingDuringProbe(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_x.mov")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).
		Return(nil, &transcoder.ToolError{Op: "probe", Path: original, Kind: transcoder.ErrToolNotFound})

	var rec Record
	tally, _ := p.RunRepair(context.Background(), []string{dir}, func(pr Progress) { rec = pr.Record })
	if tally.Failed != 1 || !errors.Is(rec.Err, ErrProbeFailure) {
		t.Errorf("tally = %+v, err = %v, want probe failure", tally, rec.Err)
	}
}

func TestRunRepairSkipsValidFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2023-01-02_ok.jpg"), []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0xFF, 0xD9})
	writeFile(t, filepath.Join(dir, "2023-01-02_ok.png"), []byte("\x89PNG\r\n\x1a\n...."))
	writeFile(t, filepath.Join(dir, "2023-01-02_voice.mp3"), mp4Header)
	writeFile(t, filepath.Join(dir, ".hidden.jpg"), mp4Header)

	p, _ := newTestPlanner(t, Options{})
	tally, err := p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	if tally.Skipped != 2 || tally.Fixed != 0 || tally.Failed != 0 {
		t.Errorf("tally = %+v, want 2 skipped", tally)
	}
}

func TestRunRepairDryRun(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_x.jpg")
	writeFile(t, original, mp4Header)

	p, tool := newTestPlanner(t, Options{DryRun: true})
	tool.EXPECT().ProbeStreams(gomock.Any(), original).Return(transcoder.Streams{transcoder.StreamVideo}, nil)

	tally, err := p.RunRepair(context.Background(), []string{dir}, nil)
	if err != nil || tally.Planned != 1 || tally.Fixed != 0 {
		t.Fatalf("RunRepair() = %+v, %v, want 1 planned", tally, err)
	}
	if !exists(original) || exists(filepath.Join(dir, BackupDirName)) {
		t.Error("dry run modified the folder")
	}
}

func TestRunRepairCancelledBetweenFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "2023-01-01_a.jpg")
	second := filepath.Join(dir, "2023-01-02_b.jpg")
	writeFile(t, first, mp4Header)
	writeFile(t, second, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	tool.EXPECT().ProbeStreams(gomock.Any(), first).Return(transcoder.Streams{transcoder.StreamVideo}, nil)
	tool.EXPECT().ReencodeVideo(gomock.Any(), first, gomock.Any()).DoAndReturn(writeOutput("ok"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tally, err := p.RunRepair(ctx, []string{dir}, func(Progress) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunRepair() error = %v, want context.Canceled", err)
	}
	if tally.Fixed != 1 {
		t.Errorf("tally = %+v, want the in-flight file completed", tally)
	}
	if !exists(second) {
		t.Error("second file touched after cancellation")
	}
}

func TestRunRepairToolUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	tool := mocks.NewMockMediaTool(ctrl)
	tool.EXPECT().Available().Return(transcoder.ErrToolNotFound)

	_, err := New(tool, Options{}).RunRepair(context.Background(), []string{t.TempDir()}, nil)
	if !errors.Is(err, transcoder.ErrToolNotFound) {
		t.Errorf("RunRepair() error = %v, want ErrToolNotFound", err)
	}
}

func TestFolderBusy(t *testing.T) {
	dir := t.TempDir()
	release, err := claimFolders([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if !IsBusy(dir) {
		t.Error("IsBusy() = false while claimed")
	}

	p, _ := newTestPlanner(t, Options{})
	if _, err := p.RunRepair(context.Background(), []string{dir}, nil); !errors.Is(err, ErrFolderBusy) {
		t.Errorf("RunRepair() error = %v, want ErrFolderBusy", err)
	}
	if _, err := p.RunRevert(context.Background(), []string{dir}, nil); !errors.Is(err, ErrFolderBusy) {
		t.Errorf("RunRevert() error = %v, want ErrFolderBusy", err)
	}

	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Errorf("lock file missing while claimed: %v", err)
	}

	release()
	if IsBusy(dir) {
		t.Error("IsBusy() = true after release")
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Errorf("lock file left after release: %v", err)
	}
}

func TestFolderLockedByOtherProcess(t *testing.T) {
	free := t.TempDir()
	locked := t.TempDir()
	lock := filepath.Join(locked, LockFileName)
	if err := os.WriteFile(lock, []byte("pid 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsBusy(locked) {
		t.Error("IsBusy() = false with a lock file present")
	}
	if dir, busy := AnyBusy(free, locked); !busy || dir != locked {
		t.Errorf("AnyBusy() = %q, %v, want %q, true", dir, busy, locked)
	}

	if _, err := claimFolders([]string{free, locked}); !errors.Is(err, ErrFolderBusy) {
		t.Fatalf("claimFolders() error = %v, want ErrFolderBusy", err)
	}
	if _, err := os.Stat(filepath.Join(free, LockFileName)); !os.IsNotExist(err) {
		t.Errorf("partial claim left a lock in %s: %v", free, err)
	}
	if IsBusy(free) {
		t.Error("IsBusy() = true for a folder whose claim was rolled back")
	}

	if err := os.Remove(lock); err != nil {
		t.Fatal(err)
	}
	release, err := claimFolders([]string{free, locked})
	if err != nil {
		t.Fatalf("claimFolders() after lock removal error = %v", err)
	}
	release()
}

func TestClaimMissingFolder(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	release, err := claimFolders([]string{missing})
	if err != nil {
		t.Fatalf("claimFolders() error = %v", err)
	}
	if !IsBusy(missing) {
		t.Error("IsBusy() = false while claimed in process")
	}
	release()
}

func TestRunRepairDestinationExists(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_x.jpg")
	existing := filepath.Join(dir, "2023-01-02_x.mp4")
	writeFile(t, original, mp4Header)
	writeFile(t, existing, mp4Header)

	p, tool := newTestPlanner(t, Options{})
	video := transcoder.Streams{transcoder.StreamVideo}
	tool.EXPECT().ProbeStreams(gomock.Any(), original).Return(video, nil)
	tool.EXPECT().ProbeStreams(gomock.Any(), existing).Return(video, nil)

	var records []Record
	tally, err := p.RunRepair(context.Background(), []string{dir}, func(pr Progress) {
		records = append(records, pr.Record)
	})
	if err != nil {
		t.Fatalf("RunRepair() error = %v", err)
	}
	if tally.Failed != 1 || tally.Skipped != 1 {
		t.Errorf("tally = %+v, want 1 failed, 1 skipped", tally)
	}
	if !errors.Is(records[0].Err, ErrTransactionFailure) {
		t.Errorf("err = %v, want ErrTransactionFailure", records[0].Err)
	}
	if !bytes.Equal(readFile(t, existing), mp4Header) {
		t.Error("existing file was overwritten")
	}
}

func TestCommitRollsBack(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "2023-01-02_x.jpg")
	writeFile(t, original, []byte("original"))

	p, _ := newTestPlanner(t, Options{})
	pl, err := p.newPlan(original, ".mp4")
	if err != nil {
		t.Fatalf("newPlan() error = %v", err)
	}

	err = p.commit(pl, filepath.Join(dir, "missing-output.mp4"))
	if !errors.Is(err, ErrTransactionFailure) {
		t.Fatalf("commit() error = %v, want ErrTransactionFailure", err)
	}
	if !bytes.Equal(readFile(t, original), []byte("original")) {
		t.Error("original not restored")
	}
	if exists(filepath.Join(dir, BackupDirName)) {
		t.Error("backup dir left after rollback")
	}
}

func TestRevertOnlyRemovesRepairTargets(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, BackupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(backupDir, "2023-01-02_x.mov"), []byte("orig"))
	writeFile(t, filepath.Join(dir, "2023-01-02_x.mp4"), []byte("repaired"))
	writeFile(t, filepath.Join(dir, "2023-01-02_x.txt"), []byte("note"))

	var lines []string
	p, _ := newTestPlanner(t, Options{})
	n, err := p.RunRevert(context.Background(), []string{dir}, func(line string) { lines = append(lines, line) })
	if err != nil || n != 1 {
		t.Fatalf("RunRevert() = %d, %v, want 1, nil", n, err)
	}
	if exists(filepath.Join(dir, "2023-01-02_x.mp4")) {
		t.Error("repaired sibling not removed")
	}
	if !exists(filepath.Join(dir, "2023-01-02_x.txt")) {
		t.Error("unrelated sibling removed")
	}
	if !bytes.Equal(readFile(t, filepath.Join(dir, "2023-01-02_x.mov")), []byte("orig")) {
		t.Error("backup not restored")
	}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "REVERTED") {
		t.Errorf("log lines = %v", lines)
	}
}

func TestRepairStackingRefused(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, BackupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(backupDir, "2023-01-02_x.jpg"), mp4Header)
	writeFile(t, filepath.Join(dir, "2023-01-02_x.mp4"), []byte("still broken"))

	p, _ := newTestPlanner(t, Options{})
	_, err := p.newPlan(filepath.Join(dir, "2023-01-02_x.mp4"), ".mp4")
	if !errors.Is(err, ErrTransactionFailure) {
		t.Errorf("newPlan() error = %v, want ErrTransactionFailure", err)
	}
}

func TestBackupCount(t *testing.T) {
	dir := t.TempDir()
	if BackupCount(dir) != 0 {
		t.Error("BackupCount() of empty dir != 0")
	}
	if err := os.MkdirAll(filepath.Join(dir, BackupDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, BackupDirName, "a.jpg"), nil)
	writeFile(t, filepath.Join(dir, BackupDirName, "b.jpg"), nil)
	if got := BackupCount(dir, filepath.Join(dir, "missing")); got != 2 {
		t.Errorf("BackupCount() = %d, want 2", got)
	}
}
