package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
)

// Starter cards granted to every new account, in this variant order.
var StarterSpecs = []struct {
	CardID  string
	Variant models.VisualVariant
}{
	{CardID: "sati", Variant: models.VariantBasic},
	{CardID: "sila-5", Variant: models.VariantTextured},
}

// MasterCatalog returns the embedded card pool. Every rarity tier has at
// least one archetype so a draw can never land on an empty tier.
func MasterCatalog() []*models.Card {
	return []*models.Card{
		// Common
		{
			ID:       "sati",
			Term:     "สติ",
			Meaning:  "ความระลึกได้ ความไม่เผลอ",
			Details:  "สติคือความระลึกรู้ตัวอยู่กับปัจจุบัน เป็นธรรมมีอุปการะมากที่ควรเจริญอยู่เสมอ",
			Category: "สมาธิ",
			Teaching: "สติมา ปัญญาเกิด สติเตลิด จะเกิดปัญหา",
			Rarity:   models.RarityCommon,
		},
		{
			ID:       "sila-5",
			Term:     "ศีล 5",
			Meaning:  "ข้อปฏิบัติพื้นฐาน 5 ประการ เพื่อความปกติสุขของชีวิต",
			Details:  "เว้นจากการฆ่าสัตว์ ลักทรัพย์ ประพฤติผิดในกาม พูดเท็จ และดื่มสุราเมรัย",
			Category: "ศีล",
			Teaching: "ศีลเป็นฐานของความดีทั้งปวง",
			Rarity:   models.RarityCommon,
		},
		{
			ID:       "metta",
			Term:     "เมตตา",
			Meaning:  "ความปรารถนาให้ผู้อื่นเป็นสุข",
			Details:  "เมตตาเป็นข้อแรกในพรหมวิหาร 4 ความรักความปรารถนาดีโดยไม่หวังผลตอบแทน",
			Category: "พรหมวิหาร 4",
			Teaching: "เมตตาธรรมค้ำจุนโลก",
			Rarity:   models.RarityCommon,
		},
		{
			ID:       "hiri-ottappa",
			Term:     "หิริโอตตัปปะ",
			Meaning:  "ความละอายและเกรงกลัวต่อบาป",
			Details:  "ธรรมคุ้มครองโลก ทำให้คนไม่กล้าทำชั่วทั้งในที่ลับและที่แจ้ง",
			Category: "ธรรมคุ้มครองโลก",
			Teaching: "ผู้มีหิริโอตตัปปะ ย่อมไม่ทำบาปแม้ไม่มีใครเห็น",
			Rarity:   models.RarityCommon,
		},
		{
			ID:       "khanti",
			Term:     "ขันติ",
			Meaning:  "ความอดทนอดกลั้น",
			Details:  "ความอดทนต่อความลำบาก ความเจ็บใจ และอำนาจกิเลส เป็นตบะอย่างยิ่ง",
			Category: "บารมี",
			Teaching: "ขันติคือเครื่องประดับของนักปราชญ์",
			Rarity:   models.RarityCommon,
		},
		{
			ID:       "kataññu",
			Term:     "กตัญญูกตเวที",
			Meaning:  "ความรู้คุณและตอบแทนคุณ",
			Details:  "เครื่องหมายของคนดี ผู้รู้อุปการะที่ท่านทำแล้วและกระทำตอบแทน",
			Category: "มงคลชีวิต",
			Teaching: "ความกตัญญูเป็นเครื่องหมายของคนดี",
			Rarity:   models.RarityCommon,
		},

		// Rare
		{
			ID:       "itthipada-4",
			Term:     "อิทธิบาท 4",
			Meaning:  "ธรรมแห่งความสำเร็จ 4 ประการ",
			Details:  "ฉันทะ วิริยะ จิตตะ วิมังสา คุณเครื่องให้ถึงความสำเร็จตามประสงค์",
			Category: "อิทธิบาท 4",
			Teaching: "ความสำเร็จเกิดจากใจรัก พากเพียร เอาใจใส่ และใคร่ครวญ",
			Rarity:   models.RarityRare,
		},
		{
			ID:       "phrommawihan-4",
			Term:     "พรหมวิหาร 4",
			Meaning:  "ธรรมประจำใจผู้ประเสริฐ",
			Details:  "เมตตา กรุณา มุทิตา อุเบกขา ธรรมเครื่องอยู่ของพรหม",
			Category: "พรหมวิหาร 4",
			Teaching: "ผู้ใหญ่ที่มีพรหมวิหารย่อมเป็นที่พึ่งของผู้น้อย",
			Rarity:   models.RarityRare,
		},
		{
			ID:       "sangkhahawatthu-4",
			Term:     "สังคหวัตถุ 4",
			Meaning:  "ธรรมยึดเหนี่ยวจิตใจคน 4 ประการ",
			Details:  "ทาน ปิยวาจา อัตถจริยา สมานัตตตา เครื่องผูกไมตรีและประสานหมู่ชน",
			Category: "สังคหวัตถุ 4",
			Teaching: "การให้ย่อมผูกไมตรีไว้ได้",
			Rarity:   models.RarityRare,
		},
		{
			ID:       "ongkhun-ratana-3",
			Term:     "พระรัตนตรัย",
			Meaning:  "แก้วอันประเสริฐ 3 ประการ",
			Details:  "พระพุทธ พระธรรม พระสงฆ์ สรณะอันเกษมสูงสุดของพุทธศาสนิกชน",
			Category: "รัตนะ",
			Teaching: "พุทธัง ธัมมัง สังฆัง สรณัง คัจฉามิ",
			Rarity:   models.RarityRare,
		},

		// Epic
		{
			ID:       "ariyasat-4",
			Term:     "อริยสัจ 4",
			Meaning:  "ความจริงอันประเสริฐ 4 ประการ",
			Details:  "ทุกข์ สมุทัย นิโรธ มรรค หลักธรรมแกนกลางแห่งพระพุทธศาสนา",
			Category: "ปัญญา",
			Teaching: "รู้ทุกข์ ละเหตุแห่งทุกข์ ทำนิโรธให้แจ้ง เจริญมรรค",
			Rarity:   models.RarityEpic,
		},
		{
			ID:       "mak-8",
			Term:     "มรรคมีองค์ 8",
			Meaning:  "ทางสายกลางสู่ความดับทุกข์",
			Details:  "สัมมาทิฏฐิถึงสัมมาสมาธิ ข้อปฏิบัติอันพอดีที่ไม่ตึงไม่หย่อน",
			Category: "ปัญญา",
			Teaching: "ทางสายกลางคือทางแห่งความพ้นทุกข์",
			Rarity:   models.RarityEpic,
		},
		{
			ID:       "tilakkhana",
			Term:     "ไตรลักษณ์",
			Meaning:  "ลักษณะสามัญของสรรพสิ่ง 3 ประการ",
			Details:  "อนิจจัง ทุกขัง อนัตตา สิ่งทั้งปวงไม่เที่ยง เป็นทุกข์ ไม่ใช่ตัวตน",
			Category: "ปัญญา",
			Teaching: "สิ่งใดสิ่งหนึ่งมีความเกิดขึ้นเป็นธรรมดา สิ่งนั้นล้วนมีความดับไปเป็นธรรมดา",
			Rarity:   models.RarityEpic,
		},

		// Legendary
		{
			ID:       "nibbana",
			Term:     "นิพพาน",
			Meaning:  "ความดับสนิทแห่งกิเลสและกองทุกข์",
			Details:  "สภาวะที่ปราศจากราคะ โทสะ โมหะ บรมสุขอันเป็นจุดหมายสูงสุด",
			Category: "ปรมัตถธรรม",
			Teaching: "นิพพานัง ปรมัง สุขัง นิพพานเป็นสุขอย่างยิ่ง",
			Rarity:   models.RarityLegendary,
		},
		{
			ID:       "paticcasamuppada",
			Term:     "ปฏิจจสมุปบาท",
			Meaning:  "ธรรมว่าด้วยการอาศัยกันเกิดขึ้นแห่งสรรพสิ่ง",
			Details:  "สายแห่งเหตุปัจจัย 12 ประการ ตั้งแต่อวิชชาจนถึงชรามรณะ",
			Category: "ปรมัตถธรรม",
			Teaching: "เมื่อสิ่งนี้มี สิ่งนี้จึงมี เมื่อสิ่งนี้ดับ สิ่งนี้จึงดับ",
			Rarity:   models.RarityLegendary,
		},
	}
}

// InitializeCatalogData seeds the master pool on first start. Existing rows
// are left untouched.
func (db *DB) InitializeCatalogData(ctx context.Context) error {
	var count int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cards").Scan(&count)
	if err == nil && count > 0 {
		slog.Info("Card catalog already initialized, skipping",
			slog.Int("existing_cards", count))
		return nil
	}

	cards := MasterCatalog()
	_, err = db.bunDB.NewInsert().
		Model(&cards).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed card catalog: %w", err)
	}

	slog.Info("Card catalog initialized",
		slog.Int("cards", len(cards)))
	return nil
}
