package agents

import (
	apperrors "vnstock-advisor/internal/errors"
)

// Diagnose converts an assistant failure into the Vietnamese message stored
// as the failed assistant turn.
func Diagnose(err error) string {
	switch {
	case err == nil:
		return ""
	case apperrors.Is(err, apperrors.ErrNoCredential):
		return "⚠️ Chưa cấu hình OpenAI API key. Vui lòng nhập API key để sử dụng trợ lý."
	case apperrors.Is(err, apperrors.ErrAssistantAuth):
		return "⚠️ API key không hợp lệ hoặc đã bị thu hồi. Vui lòng kiểm tra lại API key."
	case apperrors.Is(err, apperrors.ErrAssistantQuota):
		return "⚠️ Đã vượt hạn mức sử dụng OpenAI. Vui lòng kiểm tra gói dịch vụ hoặc thử lại sau."
	case apperrors.Is(err, apperrors.ErrAssistantTimeout):
		return "⚠️ Trợ lý phản hồi quá thời gian chờ. Vui lòng thử lại."
	case apperrors.Is(err, apperrors.ErrAssistantNetwork):
		return "⚠️ Lỗi kết nối mạng tới OpenAI. Vui lòng kiểm tra kết nối internet."
	case apperrors.Is(err, apperrors.ErrAssistantEmpty):
		return "⚠️ Trợ lý không trả về nội dung. Vui lòng thử lại."
	}
	return "⚠️ Lỗi khi gọi trợ lý: " + err.Error()
}
