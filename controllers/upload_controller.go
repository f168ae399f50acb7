package controllers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/storage"
	"github.com/cppla/board/utils"
)

const maxFilesPerUpload = 10

type uploadResult struct {
	URL              string `json:"url"`
	OriginalFileName string `json:"original_file_name"`
	Size             int64  `json:"size"`
}

// UploadController accepts board and comment images.
type UploadController struct {
	files storage.Storage
}

func NewUploadController(files storage.Storage) *UploadController {
	return &UploadController{files: files}
}

// UploadImage stores the multipart "file" part.
func (u *UploadController) UploadImage(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Fail(ctx, utils.FieldErrors(map[string]string{"file": "is required"}))
		return
	}
	result, err := u.store(ctx, header)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, result)
}

// UploadImages stores every "file" part. Either all files are stored or none are kept.
func (u *UploadController) UploadImages(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		utils.Fail(ctx, utils.FieldErrors(map[string]string{"file": "is required"}))
		return
	}
	headers := form.File["file"]
	if len(headers) > maxFilesPerUpload {
		utils.Fail(ctx, utils.FieldErrors(map[string]string{"file": "at most 10 files per request"}))
		return
	}
	results := make([]uploadResult, 0, len(headers))
	for _, header := range headers {
		result, err := u.store(ctx, header)
		if err != nil {
			for _, done := range results {
				_ = u.files.Delete(ctx.Request.Context(), done.URL)
			}
			utils.Fail(ctx, err)
			return
		}
		results = append(results, *result)
	}
	utils.Success(ctx, results)
}

func (u *UploadController) store(ctx *gin.Context, header *multipart.FileHeader) (*uploadResult, error) {
	file, err := header.Open()
	if err != nil {
		return nil, utils.Internal(err, "open upload")
	}
	defer file.Close()

	url, err := u.files.Store(ctx.Request.Context(), storage.PurposeImage, header.Filename, header.Size, file)
	if err != nil {
		return nil, err
	}
	return &uploadResult{URL: url, OriginalFileName: header.Filename, Size: header.Size}, nil
}
