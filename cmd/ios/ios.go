package emuios

import (
	"encoding/json"
	"os"

	ios "github.com/user-none/eblitui-ios"
	"github.com/user-none/emspc/adapter"
	"github.com/user-none/emspc/emu"
)

func init() {
	ios.RegisterFactory(&adapter.Factory{})
}

// Re-export bridge functions for gomobile binding

func Init(path string, regionCode int) bool { return ios.Init(path, regionCode) }
func Close()                                { ios.Close() }
func RunFrame()                             { ios.RunFrame() }
func GetFrameData() []byte                  { return ios.GetFrameData() }
func GetAudioData() []byte                  { return ios.GetAudioData() }
func SetInput(player int, buttons int)      { ios.SetInput(player, buttons) }
func FrameWidth() int                       { return ios.FrameWidth() }
func FrameStride() int                      { return ios.FrameStride() }
func FrameHeight() int                      { return ios.FrameHeight() }
func SystemInfoJSON() string                { return ios.SystemInfoJSON() }
func Region() int                           { return ios.Region() }
func GetFPS() int                           { return ios.GetFPS() }
func DetectRegionFromPath(path string) int  { return ios.DetectRegionFromPath(path) }
func HasSaveStates() bool                   { return ios.HasSaveStates() }
func SaveState() bool                       { return ios.SaveState() }
func StateLen() int                         { return ios.StateLen() }
func StateByte(i int) int                   { return ios.StateByte(i) }
func LoadState(data []byte) bool            { return ios.LoadState(data) }
func HasSRAM() bool                         { return ios.HasSRAM() }
func PrepareSRAM()                          { ios.PrepareSRAM() }
func SRAMLen() int                          { return ios.SRAMLen() }
func SRAMByte(i int) int                    { return ios.SRAMByte(i) }
func LoadSRAM(data []byte)                  { ios.LoadSRAM(data) }
func ExtractAndStoreROM(srcPath, destDir string) (string, error) {
	return ios.ExtractAndStoreROM(srcPath, destDir)
}
func GetCRC32FromPath(path string) int64 { return ios.GetCRC32FromPath(path) }
func SetOption(key string, value string) { ios.SetOption(key, value) }

// songInfo is the tag set shown in the iOS library before a song is opened.
type songInfo struct {
	Title       string  `json:"title"`
	Song        string  `json:"song"`
	Game        string  `json:"game"`
	Artist      string  `json:"artist"`
	Dumper      string  `json:"dumper"`
	Comments    string  `json:"comments"`
	PlaySeconds float64 `json:"playSeconds"`
	FadeSeconds float64 `json:"fadeSeconds"`
	KeyedVoices int     `json:"keyedVoices"`
}

// IsSPC reports whether the file at path is a loadable SPC snapshot.
func IsSPC(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return emu.ValidateSPC(data) == nil
}

// SongInfoJSON returns the ID666 tags of the SPC at path as JSON, or an
// empty string when the file cannot be parsed.
func SongInfoJSON(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	spc, err := emu.ParseSPC(data)
	if err != nil {
		return ""
	}
	b, err := json.Marshal(songInfo{
		Title:       spc.Title(),
		Song:        spc.Song,
		Game:        spc.Game,
		Artist:      spc.Artist,
		Dumper:      spc.Dumper,
		Comments:    spc.Comments,
		PlaySeconds: spc.PlayTime.Seconds(),
		FadeSeconds: spc.FadeTime.Seconds(),
		KeyedVoices: int(spc.KeyedVoices()),
	})
	if err != nil {
		return ""
	}
	return string(b)
}
