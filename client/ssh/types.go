package ssh

import "fmt"

const (
	requestFileInfo = "file-info"
	requestListen   = "listen"
	requestFileSave = "file-save"
)

type FileInfoPayload struct {
	FileID  string
	EditUrl string
}

func (f FileInfoPayload) String() string {
	return fmt.Sprintf("FileID: %s, EditUrl: %s", f.FileID, f.EditUrl)
}
