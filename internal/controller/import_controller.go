// internal/controller/import_controller.go
package controller

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/davencourt/mailliste-backend/internal/service"
)

type ImportController struct {
	ImportService *service.ImportService
}

// Import takes a multipart upload under "file". The extension picks the
// path: .vcf/.vcard parse as vCards, anything else as delimited text.
func (c *ImportController) Import(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	opts := service.ImportOptions{
		MergeLists: r.FormValue("merge_lists") == "true",
		Source:     r.FormValue("source"),
	}
	if opts.Source == "" {
		opts.Source = "import"
	}

	var result *service.ImportResult
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".vcf", ".vcard":
		result, err = c.ImportService.ImportVCard(file, opts)
	default:
		result, err = c.ImportService.ImportDelimited(file, opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Export streams contacts as an attachment. format is tsv (default), csv
// or vcf; list restricts to one list's members.
func (c *ImportController) Export(w http.ResponseWriter, r *http.Request) {
	listID, _ := strconv.Atoi(r.URL.Query().Get("list"))
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "tsv"
	}
	stamp := time.Now().Format("20060102")

	var err error
	switch format {
	case "tsv":
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="contacts_%s.tsv"`, stamp))
		err = c.ImportService.ExportDelimited(w, listID, '\t')
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="contacts_%s.csv"`, stamp))
		err = c.ImportService.ExportDelimited(w, listID, ',')
	case "vcf":
		w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="contacts_%s.vcf"`, stamp))
		err = c.ImportService.ExportVCard(w, listID, r.URL.Query().Get("version"))
	default:
		http.Error(w, "unknown export format", http.StatusBadRequest)
		return
	}
	if err != nil {
		// Headers may already be out; log-and-drop is all we can do.
		log.Println("export:", err)
	}
}
