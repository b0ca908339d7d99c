package chinese

import "slices"

// Pinyin confusion tables. These are immutable package-level data; engines
// overlay config-file additions at construction without mutating them.

// initialOrder lists every Pinyin initial, longest first so zh/ch/sh win
// over z/c/s during prefix extraction.
var initialOrder = []string{
	"zh", "ch", "sh",
	"b", "p", "m", "f", "d", "t", "n", "l",
	"g", "k", "h", "j", "q", "x",
	"z", "c", "s", "r", "y", "w",
}

// fuzzyInitialGroups assigns confusable initials to a named group: retroflex
// flattening (z/zh, c/ch, s/sh), n/l, r to l, and f/h.
var fuzzyInitialGroups = map[string]string{
	"z":  "z_group",
	"zh": "z_group",
	"c":  "c_group",
	"ch": "c_group",
	"s":  "s_group",
	"sh": "s_group",
	"n":  "n_l_group",
	"l":  "n_l_group",
	"r":  "r_l_group",
	"f":  "f_h_group",
	"h":  "f_h_group",
}

// groupInitials is the reverse of fuzzyInitialGroups, with l folded into the
// r group because l also surfaces where r was intended.
var groupInitials = buildGroupInitials()

func buildGroupInitials() map[string][]string {
	groups := make(map[string][]string)
	for _, initial := range initialOrder {
		group, ok := fuzzyInitialGroups[initial]
		if !ok {
			continue
		}
		groups[group] = append(groups[group], initial)
	}
	groups["r_l_group"] = append(groups["r_l_group"], "l")
	return groups
}

// fuzzyFinalPairs lists interchangeable final endings (front/back nasals and
// common vowel drift).
var fuzzyFinalPairs = [][2]string{
	{"in", "ing"},
	{"en", "eng"},
	{"an", "ang"},
	{"ian", "iang"},
	{"uan", "uang"},
	{"uan", "an"},
	{"ong", "eng"},
	{"ong", "on"},
	{"uo", "o"},
	{"uo", "ou"},
	{"ue", "ie"},
}

// specialSyllables maps a commonly heard syllable to the syllables it tends
// to stand in for. The mapping is one-way (misreading to intended reading)
// so correct words are not pulled toward wrong ones during matching; the
// variant generator additionally walks the reverse edges.
var specialSyllables = map[string][]string{
	"hua":  {"fa"},
	"hui":  {"fei", "wei"},
	"huan": {"fan", "wan"},
	"hong": {"feng"},
	"fu":   {"hu"},
	"xie":  {"xue"},
	"jie":  {"jue"},
	"qie":  {"que"},
	"nie":  {"nue"},
	"lie":  {"lue"},
	"lan":  {"ran"},
	"yan":  {"ran"},
	"lou":  {"rou"},
	"e":    {"er"},
	"wen":  {"weng"},
	"iong": {"yong"},
	"lun":  {"ren"},
	"leng": {"ren"},
}

// specialSyllablesBidi extends specialSyllables with the reverse edges, used
// by the variant generator where over-generation is harmless.
var specialSyllablesBidi = bidiSyllables(specialSyllables)

// bidiSyllables returns uni with every reverse edge added. Keys are walked
// in sorted order so syllables with several reverse contributors list them
// the same way in every process.
func bidiSyllables(uni map[string][]string) map[string][]string {
	froms := make([]string, 0, len(uni))
	for from := range uni {
		froms = append(froms, from)
	}
	slices.Sort(froms)

	bidi := make(map[string][]string, len(uni)*2)
	for _, from := range froms {
		bidi[from] = append(bidi[from], uni[from]...)
	}
	for _, from := range froms {
		for _, to := range uni[from] {
			if !containsString(bidi[to], from) {
				bidi[to] = append(bidi[to], from)
			}
		}
	}
	return bidi
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// stickyPhrases maps a standard phrase to slurred renditions heard in fast
// Taiwanese Mandarin. Whole-phrase rules; they do not decompose into
// per-syllable edits.
var stickyPhrases = map[string][]string{
	"歡迎光臨": {"緩光您", "歡光您"},
	"謝謝光臨": {"寫光您"},
	"不好意思": {"報意思", "鮑意思", "不意思", "報思"},
	"對不起":  {"對不擠", "對七", "瑞不七"},
	"不知道":  {"幫道", "不道", "苞道", "不造"},
	"為什麼":  {"為什", "位什", "為某", "餵墨"},
	"什麼":   {"甚", "神馬", "什"},
	"就是":   {"救世", "糾是", "舊是"},
	"真的":   {"珍的", "貞的", "蒸的"},
	"這樣":   {"醬", "這樣", "窄樣"},
	"那樣":   {"釀", "那樣"},
	"可以":   {"科以", "可一", "凱"},
	"便宜":   {"皮宜", "頻宜"},
	"而且":   {"鵝且", "額且", "二且"},
	"然後":   {"那後", "腦後", "挪"},
	"大家好":  {"搭好", "大好", "家好"},
	"先生":   {"鮮生", "仙", "軒", "先嗯"},
	"小姐":   {"小解", "小節"},
	"根本":   {"跟本", "公本"},
	"這邊":   {"這嗯"},
	"今天的":  {"尖的"},
	"需要":   {"蕭"},
	"收您":   {"SONY"},
}

// regionalAliases maps a canonical place or brand name to shorthand surfaces
// in common use. Like stickyPhrases these are whole-word rules.
var regionalAliases = map[string][]string{
	"台北車站": {"北車", "台北站"},
	"高雄車站": {"高車"},
	"台中車站": {"中車"},
}

// homophonePool maps a toneless Pinyin syllable to representative
// traditional characters, most common first. The variant generator projects
// fuzzy syllables back to surface forms through it. Syllables without an
// entry simply produce no surface variant.
var homophonePool = map[string]string{
	"a": "啊阿", "ai": "愛埃哀", "an": "安按案", "ang": "昂", "ao": "奧澳熬",
	"ba": "八把巴", "bai": "白百拜", "ban": "半班般", "bang": "幫棒邦", "bao": "包保報",
	"bei": "北被貝", "ben": "本奔笨", "beng": "崩蹦", "bi": "比必筆", "bian": "邊變便",
	"biao": "表標錶", "bie": "別憋", "bin": "賓彬", "bing": "並冰病", "bo": "波博播", "bu": "不布步",
	"ca": "擦", "cai": "才菜採", "can": "參餐殘", "cang": "倉藏蒼", "cao": "草操糙",
	"ce": "測策側", "cen": "岑", "ceng": "層曾蹭", "cha": "查茶差", "chai": "拆柴",
	"chan": "產纏禪", "chang": "長常場", "chao": "超朝吵", "che": "車徹撤", "chen": "陳沉晨",
	"cheng": "成城程", "chi": "吃持池", "chong": "重衝充", "chou": "抽愁醜", "chu": "出初除",
	"chuan": "穿船傳", "chuang": "窗床創", "chui": "吹垂", "chun": "春純唇", "chuo": "戳",
	"ci": "次此詞", "cong": "從聰蔥", "cou": "湊", "cu": "粗醋促", "cuan": "竄",
	"cui": "脆催翠", "cun": "村存寸", "cuo": "錯措搓",
	"da": "大打達", "dai": "帶代待", "dan": "但單蛋", "dang": "當黨檔", "dao": "到道倒",
	"de": "的得德", "dei": "得", "deng": "等燈登", "di": "地第低", "dian": "點電店",
	"diao": "掉調釣", "die": "跌爹疊", "ding": "定訂頂", "diu": "丟", "dong": "東動懂",
	"dou": "都豆斗", "du": "都度讀", "duan": "段短斷", "dui": "對隊", "dun": "頓噸蹲", "duo": "多朵躲",
	"e": "餓鵝額", "ei": "欸", "en": "恩嗯", "er": "而二兒",
	"fa": "發法罰", "fan": "飯反翻", "fang": "方放房", "fei": "飛非費", "fen": "分份粉",
	"feng": "風封瘋", "fo": "佛", "fou": "否", "fu": "付福副",
	"ga": "嘎", "gai": "該改蓋", "gan": "感乾敢", "gang": "剛港鋼", "gao": "高告搞",
	"ge": "個歌格", "gei": "給", "gen": "跟根", "geng": "更耕", "gong": "公工共",
	"gou": "夠狗購", "gu": "股古故", "gua": "掛瓜颳", "guai": "怪乖", "guan": "關管官",
	"guang": "光廣逛", "gui": "貴鬼歸", "gun": "滾棍", "guo": "過國果",
	"ha": "哈", "hai": "還海害", "han": "漢含喊", "hang": "行航巷", "hao": "好號毫",
	"he": "和喝河", "hei": "黑嘿", "hen": "很恨狠", "heng": "橫哼", "hong": "紅轟洪",
	"hou": "後候厚", "hu": "湖戶呼", "hua": "話花化", "huai": "壞懷", "huan": "換還歡",
	"huang": "黃慌晃", "hui": "會回灰", "hun": "混婚昏", "huo": "或火活",
	"ji": "機記及", "jia": "家加價", "jian": "見件間", "jiang": "將講漿", "jiao": "叫教腳",
	"jie": "接解街", "jin": "進金近", "jing": "經精靜", "jiong": "窘", "jiu": "就九酒",
	"ju": "就具句", "juan": "捲卷", "jue": "覺決絕", "jun": "軍均",
	"ka": "卡咖", "kai": "開凱", "kan": "看砍刊", "kang": "抗康扛", "kao": "考靠烤",
	"ke": "可課科", "ken": "肯啃", "keng": "坑", "kong": "空恐控", "kou": "口扣",
	"ku": "哭苦庫", "kua": "誇跨", "kuai": "快塊筷", "kuan": "款寬", "kuang": "況狂礦",
	"kui": "虧愧", "kun": "困昆", "kuo": "闊擴",
	"la": "拉啦辣", "lai": "來賴", "lan": "藍蘭懶", "lang": "朗浪狼", "lao": "老勞撈",
	"le": "了樂勒", "lei": "類累雷", "leng": "冷愣", "li": "里理力", "lia": "倆",
	"lian": "連臉練", "liang": "兩量亮", "liao": "料聊療", "lie": "列裂獵", "lin": "林臨淋",
	"ling": "零領令", "liu": "流六留", "long": "龍籠隆", "lou": "樓漏摟", "lu": "路露錄",
	"luan": "亂卵", "lue": "略掠", "lun": "輪論倫", "luo": "落羅裸",
	"ma": "媽馬嗎", "mai": "買賣埋", "man": "慢滿瞞", "mang": "忙盲茫", "mao": "貓毛冒",
	"me": "麼", "mei": "沒每美", "men": "門們悶", "meng": "夢猛蒙", "mi": "米密迷",
	"mian": "面免棉", "miao": "秒妙苗", "mie": "滅", "min": "民敏", "ming": "明名命",
	"miu": "謬", "mo": "莫摸墨", "mou": "某謀", "mu": "木目母",
	"na": "那拿哪", "nai": "奶乃耐", "nan": "南難男", "nang": "囊", "nao": "腦鬧惱",
	"ne": "呢", "nei": "內餒", "nen": "嫩", "neng": "能", "ni": "你泥逆",
	"nian": "年念黏", "niang": "娘釀", "niao": "鳥尿", "nie": "捏聶", "nin": "您",
	"ning": "寧擰", "niu": "牛扭紐", "nong": "弄農濃", "nu": "怒奴", "nuan": "暖",
	"nue": "虐", "nuo": "挪諾",
	"o": "哦喔", "ou": "歐偶嘔",
	"pa": "怕爬趴", "pai": "拍派排", "pan": "盤判盼", "pang": "旁胖龐", "pao": "跑泡拋",
	"pei": "陪配賠", "pen": "盆噴", "peng": "朋碰棚", "pi": "皮批匹", "pian": "片騙偏",
	"piao": "票飄漂", "pie": "瞥撇", "pin": "品拼頻", "ping": "平瓶評", "po": "破頗婆",
	"pou": "剖", "pu": "普鋪僕",
	"qi": "起其七", "qia": "恰掐", "qian": "前錢千", "qiang": "強搶牆", "qiao": "橋巧敲",
	"qie": "切且竊", "qin": "親琴勤", "qing": "請情清", "qiong": "窮", "qiu": "球求秋",
	"qu": "去取區", "quan": "全權圈", "que": "卻確缺", "qun": "群裙",
	"ran": "然燃染", "rang": "讓嚷", "rao": "繞饒擾", "re": "熱惹", "ren": "人任認",
	"reng": "仍扔", "ri": "日", "rong": "容榮融", "rou": "肉柔揉", "ru": "如入乳",
	"ruan": "軟阮", "rui": "瑞銳", "run": "潤閏", "ruo": "若弱",
	"sa": "撒灑薩", "sai": "賽塞", "san": "三散傘", "sang": "喪嗓桑", "sao": "掃嫂騷",
	"se": "色澀", "sen": "森", "seng": "僧", "sha": "殺沙傻", "shai": "曬篩",
	"shan": "山閃善", "shang": "上傷商", "shao": "少燒紹", "she": "設社射", "shei": "誰",
	"shen": "神身深", "sheng": "生聲勝", "shi": "是時事", "shou": "收手受", "shu": "書數輸",
	"shua": "刷耍", "shuai": "帥摔甩", "shuan": "栓涮", "shuang": "雙爽霜", "shui": "水睡稅",
	"shun": "順瞬", "shuo": "說碩", "si": "四死思", "song": "送鬆宋", "sou": "搜艘嗽",
	"su": "素速訴", "suan": "算酸蒜", "sui": "歲雖隨", "sun": "孫損筍", "suo": "所鎖縮",
	"ta": "他她它", "tai": "台太抬", "tan": "談探彈", "tang": "堂糖躺", "tao": "套逃討",
	"te": "特", "teng": "疼騰藤", "ti": "提題體", "tian": "天田甜", "tiao": "條跳挑",
	"tie": "貼鐵帖", "ting": "聽停挺", "tong": "同通痛", "tou": "頭投偷", "tu": "土圖突",
	"tuan": "團", "tui": "推退腿", "tun": "吞屯", "tuo": "拖脫托",
	"wa": "哇挖娃", "wai": "外歪", "wan": "萬完晚", "wang": "王往網", "wei": "為位未",
	"wen": "問文溫", "weng": "翁嗡", "wo": "我握窩", "wu": "五無物",
	"xi": "西習洗", "xia": "下夏嚇", "xian": "先現線", "xiang": "想向相", "xiao": "小笑消",
	"xie": "寫謝些", "xin": "新心信", "xing": "行性星", "xiong": "兄胸雄", "xiu": "修秀休",
	"xu": "需許續", "xuan": "選宣旋", "xue": "學雪血", "xun": "尋訊巡",
	"ya": "呀牙壓", "yan": "言眼演", "yang": "樣陽養", "yao": "要藥搖", "ye": "也夜葉",
	"yi": "一以已", "yin": "因音引", "ying": "應影硬", "yong": "用永勇", "you": "有又由",
	"yu": "於魚雨", "yuan": "元原員", "yue": "月約越", "yun": "雲運暈",
	"za": "雜咋", "zai": "在再載", "zan": "贊咱攢", "zang": "髒葬", "zao": "早造糟",
	"ze": "則責擇", "zei": "賊", "zen": "怎", "zeng": "增贈", "zha": "炸渣眨",
	"zhai": "摘窄宅", "zhan": "站戰占", "zhang": "張長帳", "zhao": "找照招", "zhe": "這著者",
	"zhen": "真針陣", "zheng": "正整證", "zhi": "之只知", "zhong": "中重種", "zhou": "週州粥",
	"zhu": "住主豬", "zhua": "抓", "zhuai": "拽", "zhuan": "轉專賺", "zhuang": "裝撞狀",
	"zhui": "追墜", "zhun": "準", "zhuo": "桌捉", "zi": "子自字", "zong": "總宗縱",
	"zou": "走奏", "zu": "組足族", "zuan": "鑽", "zui": "最嘴醉", "zun": "尊遵", "zuo": "做坐左",
}

// representativeChars returns up to max representative characters for a
// Pinyin syllable, most common first.
func representativeChars(pinyin string, max int) []rune {
	pool, ok := homophonePool[pinyin]
	if !ok || max <= 0 {
		return nil
	}
	chars := []rune(pool)
	if len(chars) > max {
		chars = chars[:max]
	}
	return chars
}
