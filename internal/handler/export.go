package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"license-console/internal/config"
	"license-console/internal/middleware"
	"license-console/internal/model"
	"license-console/internal/pkg/response"
	"license-console/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	licenses *service.LicenseService
}

func NewExportHandler() *ExportHandler {
	return &ExportHandler{licenses: service.NewLicenseService(model.DB)}
}

// ExportLicenses 导出当前范围内的授权数据
func (h *ExportHandler) ExportLicenses(c *gin.Context) {
	adminID := middleware.GetAdminID(c)

	licenses, err := h.licenses.List(adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// 设置响应头
	filename := fmt.Sprintf("%s-licenses-%s.csv", config.Get().App.Product, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	// 写入 BOM 以支持 Excel 显示
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Email", "Status", "Date Added", "Activated At"})

	for _, license := range licenses {
		activatedAt := ""
		if license.ActivatedAt != nil {
			activatedAt = license.ActivatedAt.Format("2006-01-02 15:04:05")
		}
		writer.Write([]string{
			license.Email,
			license.Status(),
			license.CreatedAt.Format("2006-01-02 15:04:05"),
			activatedAt,
		})
	}
}

// ImportLicenses 从 CSV 批量导入授权。
// 跳过表头行，取第一列为邮箱，其余语义与批量创建一致。
func (h *ExportHandler) ImportLicenses(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "缺少上传文件")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ServerError(c, "读取上传文件失败")
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var emails []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			response.BadRequest(c, "CSV 格式错误: "+err.Error())
			return
		}
		if len(record) == 0 {
			continue
		}
		// 跳过表头行
		if first {
			first = false
			continue
		}
		if record[0] == "" {
			continue
		}
		emails = append(emails, record[0])
	}

	if len(emails) == 0 {
		response.BadRequest(c, "文件中没有可导入的邮箱")
		return
	}

	adminID := middleware.GetAdminID(c)
	result, err := h.licenses.CreateBatch(adminID, emails)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "导入完成", gin.H{"results": result})
}

// ExportAuditLogs 导出当前范围内的操作日志
func (h *ExportHandler) ExportAuditLogs(c *gin.Context) {
	adminID := middleware.GetAdminID(c)
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	scope, err := service.ResolveScope(model.DB, adminID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	query := model.DB.Model(&model.AuditLog{})
	if scope.IsTeam() {
		query = query.Where("team_id = ?", scope.TeamID)
	} else {
		query = query.Where("admin_id = ?", adminID)
	}
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate+" 00:00:00")
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var logs []model.AuditLog
	query.Order("created_at DESC").Limit(10000).Find(&logs)

	filename := fmt.Sprintf("%s-audit-logs-%s.csv", config.Get().App.Product, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Time", "Admin", "Action", "Resource", "IP Address", "Status", "Duration (ms)"})

	for _, logEntry := range logs {
		writer.Write([]string{
			logEntry.CreatedAt.Format("2006-01-02 15:04:05"),
			logEntry.AdminEmail,
			logEntry.Action,
			logEntry.Resource,
			logEntry.IPAddress,
			fmt.Sprintf("%d", logEntry.ResponseCode),
			fmt.Sprintf("%d", logEntry.Duration),
		})
	}
}
