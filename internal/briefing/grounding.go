package briefing

import (
	"strings"
)

// Instructions is the fixed role and task text of every grounding context.
const Instructions = `Bạn là chuyên gia phân tích kỹ thuật chứng khoán Việt Nam.
Nhiệm vụ: trả lời câu hỏi của nhà đầu tư về mã cổ phiếu đang xem.
Quy tắc:
- Chỉ sử dụng dữ liệu kỹ thuật và kiến thức tham khảo được cung cấp bên dưới. Không bịa số liệu.
- Trả lời bằng tiếng Việt, ngắn gọn, có cấu trúc rõ ràng.
- Nêu rõ rủi ro và điều kiện khiến nhận định không còn đúng.
- Khi được hỏi về điểm mua hoặc đánh giá vị thế, kết thúc bằng một dòng
  "▸ Khuyến Nghị Vị Thế: MUA", "▸ Khuyến Nghị Vị Thế: THEO DÕI" hoặc "▸ Khuyến Nghị Vị Thế: KHÔNG MUA".
- Đây là thông tin tham khảo, không phải lời khuyên đầu tư.`

// GroundingContext joins the instructions, the briefing and the knowledge
// text. Each block appears once; an empty knowledge text is omitted.
func GroundingContext(briefing, knowledgeText string) string {
	var sb strings.Builder
	sb.WriteString(Instructions)
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimRight(briefing, "\n"))
	if knowledgeText != "" {
		sb.WriteString("\n\n=== KIẾN THỨC THAM KHẢO ===\n")
		sb.WriteString(knowledgeText)
	}
	sb.WriteString("\n")
	return sb.String()
}
