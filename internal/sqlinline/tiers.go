package sqlinline

const QSelectTierByID = `--sql 9c0b6ed3-7dc7-4dd3-98f6-818a65235ea2
select id, creator_id, type, amount::text, title, coalesce(description, ''), is_active, created_at
from support_tiers
where id = $1::bigint;
`
