package config

const (
	defaultProtectedDir       = "browser/protected"
	defaultAssetSubdir        = "DVD"
	defaultDatabase           = "riven.sqlite"
	defaultMapFile            = "map.yaml"
	defaultObjectsFile        = "objects.yaml"
	defaultGroupOverridesFile = "kveer-files.txt"
	defaultLogDir             = "~/.local/share/rivendb/logs"
	defaultImageExtension     = "png"
	defaultMovieExtension     = "mov"
	defaultOverrideGroup      = "K"
	defaultFullSizeWidth      = 608
	defaultFullSizeHeight     = 392
	defaultThumbnailScale     = 0.18
	defaultThumbnail2xScale   = 0.36
	defaultFrameOffset        = "00:00:01.000"
	defaultAnimationDelay     = 80
	defaultVideoBitrate       = "200k"
	defaultVideoBufferRate    = "240k"
	defaultVideoCRF           = 23
	defaultFuzz               = "3%"
	defaultMaxCandidates      = 10000
	defaultTop                = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var (
	defaultExcludedDirs  = []string{"b2_data-MHK", "Extras-MHK"}
	defaultExcludedNames = []string{"black"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProtectedDir:       defaultProtectedDir,
			AssetSubdir:        defaultAssetSubdir,
			Database:           defaultDatabase,
			MapFile:            defaultMapFile,
			ObjectsFile:        defaultObjectsFile,
			GroupOverridesFile: defaultGroupOverridesFile,
			LogDir:             defaultLogDir,
		},
		Catalog: Catalog{
			ImageExtension: defaultImageExtension,
			MovieExtension: defaultMovieExtension,
			ExcludedDirs:   append([]string(nil), defaultExcludedDirs...),
			ExcludedNames:  append([]string(nil), defaultExcludedNames...),
			OverrideGroup:  defaultOverrideGroup,
		},
		Media: Media{
			FullSizeWidth:    defaultFullSizeWidth,
			FullSizeHeight:   defaultFullSizeHeight,
			ThumbnailScale:   defaultThumbnailScale,
			Thumbnail2xScale: defaultThumbnail2xScale,
			FrameOffset:      defaultFrameOffset,
			AnimationDelay:   defaultAnimationDelay,
			VideoBitrate:     defaultVideoBitrate,
			VideoBufferRate:  defaultVideoBufferRate,
			VideoCRF:         defaultVideoCRF,
			FFmpegBinary:     "ffmpeg",
			FFprobeBinary:    "ffprobe",
			ConvertBinary:    "convert",
			CompareBinary:    "compare",
		},
		Match: Match{
			CropLeft:       144,
			CropTop:        184,
			CropWidth:      1216,
			CropHeight:     784,
			Fuzz:           defaultFuzz,
			MaxCandidates:  defaultMaxCandidates,
			Top:            defaultTop,
			PHashPrefilter: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
