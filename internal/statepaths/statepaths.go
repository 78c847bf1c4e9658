package statepaths

import (
	"github.com/noamelf/whatsapp-me/internal/pathutil"
	"github.com/spf13/viper"
)

const (
	GroupCacheFilename    = "group_cache.json"
	CreatedEventsFilename = "created_events.json"
	SessionDBFilename     = "session.db"
)

func FileStateDir() string {
	return pathutil.ResolveStateDir(viper.GetString("file_state_dir"))
}

func GroupCachePath() string {
	return pathutil.ResolveStateFile(viper.GetString("file_state_dir"), GroupCacheFilename)
}

func CreatedEventsPath() string {
	return pathutil.ResolveStateFile(viper.GetString("file_state_dir"), CreatedEventsFilename)
}

func WhatsAppDir() string {
	return pathutil.ResolveStateChildDir(
		viper.GetString("file_state_dir"),
		viper.GetString("whatsapp.dir_name"),
		"whatsapp",
	)
}
